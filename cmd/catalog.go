package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	types "github.com/yungbote/lingua-backend/internal/domain"
	"github.com/yungbote/lingua-backend/internal/platform/ctxutil"
	"github.com/yungbote/lingua-backend/internal/services"
)

const (
	ansiReset  = "\x1b[0m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the book catalog",
	}
	cmd.AddCommand(newCatalogBooksCommand(ctx))
	cmd.AddCommand(newCatalogTreeCommand(ctx))
	return cmd
}

// adminContext lets CLI reads see draft books.
func adminContext(parent context.Context) context.Context {
	return ctxutil.WithRequestData(parent, &ctxutil.RequestData{Role: types.RoleAdmin})
}

func colorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func publishedLabel(published, color bool) string {
	label, code := "draft", ansiYellow
	if published {
		label, code = "published", ansiGreen
	}
	if !color {
		return label
	}
	return code + label + ansiReset
}

func newCatalogBooksCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "books",
		Short: "List all books, drafts included",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := ctx.openStore(false)
			if err != nil {
				return err
			}
			defer store.Close()

			books, err := store.Repos.Book.List(cmd.Context(), nil, false)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, books)
			}
			color := colorEnabled(out)
			rows := make([][]string, 0, len(books))
			for _, b := range books {
				rows = append(rows, []string{
					strconv.Itoa(b.Position),
					b.Title,
					b.Language + " → " + b.TargetLanguage,
					b.Level,
					publishedLabel(b.Published, color),
					b.ID.String(),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Title", "Languages", "Level", "Status", "ID"},
				rows,
				[]columnAlignment{alignRight},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func newCatalogTreeCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "tree <book-id>",
		Short: "Show a book's units and lessons with content counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := uuid.Parse(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("invalid book id %q", args[0])
			}
			store, log, err := ctx.openStore(false)
			if err != nil {
				return err
			}
			defer store.Close()

			r := store.Repos
			trees := services.NewTreeService(store.DB.DB(), log, nil, 0, r.Book, r.Unit, r.Lesson, r.Vocabulary, r.Conversation)
			tree, err := trees.GetBookTree(adminContext(cmd.Context()), bookID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, tree)
			}
			fmt.Fprintln(out, renderTree(tree, colorEnabled(out)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func renderTree(tree *services.BookTree, color bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]\n", tree.Book.Title, publishedLabel(tree.Book.Published, color))
	rows := [][]string{}
	for _, u := range tree.Units {
		if len(u.Lessons) == 0 {
			rows = append(rows, []string{strconv.Itoa(u.Position + 1), u.Title, "", "", "", ""})
			continue
		}
		for i, l := range u.Lessons {
			unitPos, unitTitle := "", ""
			if i == 0 {
				unitPos, unitTitle = strconv.Itoa(u.Position+1), u.Title
			}
			rows = append(rows, []string{
				unitPos,
				unitTitle,
				fmt.Sprintf("%d. %s", l.Position+1, l.Title),
				l.Kind,
				strconv.Itoa(l.VocabularyCount),
				strconv.Itoa(l.ConversationCount),
			})
		}
	}
	b.WriteString(renderTable(
		[]string{"Unit", "Title", "Lesson", "Kind", "Vocab", "Lines"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
	))
	return b.String()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
