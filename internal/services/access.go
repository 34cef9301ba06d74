package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	types "github.com/yungbote/lingua-backend/internal/domain"
	"github.com/yungbote/lingua-backend/internal/platform/apierr"
	"github.com/yungbote/lingua-backend/internal/platform/ctxutil"
)

func isAdmin(ctx context.Context) bool {
	return ctxutil.GetRequestData(ctx).IsAdmin()
}

func requireUser(ctx context.Context) (uuid.UUID, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, apierr.ErrUnauthorized
	}
	return rd.UserID, nil
}

// ensureBookVisible hides unpublished books from everyone but admins.
func ensureBookVisible(ctx context.Context, book *types.Book) error {
	if book == nil {
		return apierr.NotFound("book")
	}
	if !book.Published && !isAdmin(ctx) {
		return apierr.NotFound("book " + book.ID.String())
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}
