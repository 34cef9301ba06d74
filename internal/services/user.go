package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/lingua-backend/internal/data/repos"
	types "github.com/yungbote/lingua-backend/internal/domain"
	"github.com/yungbote/lingua-backend/internal/platform/apierr"
	"github.com/yungbote/lingua-backend/internal/platform/logger"
)

type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
	UpdateName(ctx context.Context, firstName, lastName string) (*types.User, error)
	// SetRole is used by the admin CLI to promote or demote an account.
	SetRole(ctx context.Context, email, role string) (*types.User, error)
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) UserService {
	return &userService{db: db, log: log.With("service", "UserService"), userRepo: userRepo}
}

func (us *userService) load(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.User, error) {
	users, err := us.userRepo.GetByIDs(ctx, tx, []uuid.UUID{id})
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 {
		return nil, apierr.NotFound("user")
	}
	return users[0], nil
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	return us.load(ctx, nil, userID)
}

func (us *userService) UpdateName(ctx context.Context, firstName, lastName string) (*types.User, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	firstName, lastName = strings.TrimSpace(firstName), strings.TrimSpace(lastName)
	if firstName == "" {
		return nil, apierr.Invalid("first name required")
	}
	var user *types.User
	err = us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := us.userRepo.UpdateName(ctx, tx, userID, firstName, lastName); err != nil {
			return err
		}
		var err error
		user, err = us.load(ctx, tx, userID)
		return err
	})
	return user, err
}

func (us *userService) SetRole(ctx context.Context, email, role string) (*types.User, error) {
	if role != types.RoleLearner && role != types.RoleAdmin {
		return nil, apierr.Invalid("unknown role %q", role)
	}
	var user *types.User
	err := us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users, err := us.userRepo.GetByEmails(ctx, tx, []string{email})
		if err != nil {
			return err
		}
		if len(users) == 0 {
			return apierr.NotFound("user " + email)
		}
		user = users[0]
		if err := us.userRepo.UpdateRole(ctx, tx, user.ID, role); err != nil {
			return err
		}
		user.Role = role
		return nil
	})
	if err != nil {
		return nil, err
	}
	us.log.Info("user role changed", "user_id", user.ID, "role", role)
	return user, nil
}
