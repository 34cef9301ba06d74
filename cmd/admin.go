package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	types "github.com/yungbote/lingua-backend/internal/domain"
	"github.com/yungbote/lingua-backend/internal/platform/apierr"
	"github.com/yungbote/lingua-backend/internal/services"
)

func newAdminCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newCreateUserCommand(ctx))
	cmd.AddCommand(newSetRoleCommand(ctx))
	return cmd
}

func newCreateUserCommand(ctx *commandContext) *cobra.Command {
	var email, password, role, firstName, lastName string
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Register an account, optionally as admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, log, err := ctx.openStore(false)
			if err != nil {
				return err
			}
			defer store.Close()

			auth := services.NewAuthService(store.DB.DB(), log, store.Repos.User, store.Repos.UserToken,
				cfg.Auth.JWTSecretKey, cfg.AccessTTL(), cfg.RefreshTTL())
			user := &types.User{
				Email:     email,
				Password:  password,
				FirstName: firstName,
				LastName:  lastName,
				Role:      strings.ToLower(strings.TrimSpace(role)),
			}
			if err := auth.RegisterUser(cmd.Context(), user); err != nil {
				if _, code := apierr.Resolve(err, ""); code == "email_taken" {
					return fmt.Errorf("%s already exists; use `lingua admin set-role` to change its role", email)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) id=%s\n", user.Email, user.Role, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	cmd.Flags().StringVar(&role, "role", types.RoleLearner, "learner or admin")
	cmd.Flags().StringVar(&firstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "Last name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newSetRoleCommand(ctx *commandContext) *cobra.Command {
	var email, role string
	cmd := &cobra.Command{
		Use:   "set-role",
		Short: "Promote or demote an existing account",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, log, err := ctx.openStore(false)
			if err != nil {
				return err
			}
			defer store.Close()

			users := services.NewUserService(store.DB.DB(), log, store.Repos.User)
			user, err := users.SetRole(cmd.Context(), strings.ToLower(strings.TrimSpace(email)), strings.ToLower(strings.TrimSpace(role)))
			if err != nil {
				if errors.Is(err, apierr.ErrNotFound) {
					return fmt.Errorf("no account for %s", email)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.Email, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&role, "role", "", "learner or admin")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}
