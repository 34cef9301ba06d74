package extraction

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/lingua-backend/internal/platform/gcp"
	"github.com/yungbote/lingua-backend/internal/platform/logger"
)

const maxOCRChars = 6000

// ocrHint runs text detection on every page concurrently. Pages that fail
// are logged and skipped; the hint is best-effort.
func ocrHint(ctx context.Context, log *logger.Logger, vision gcp.Vision, images []PreparedImage, hints []string, limit int) string {
	if vision == nil || len(images) == 0 {
		return ""
	}
	if limit <= 0 {
		limit = 4
	}
	texts := make([]string, len(images))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, img := range images {
		i, img := i, img
		g.Go(func() error {
			res, err := vision.OCRImageBytes(gctx, img.JPEG, hints)
			if err != nil {
				log.Warn("ocr failed (ignored)", "page", i+1, "error", err)
				return nil
			}
			if res != nil {
				texts[i] = strings.TrimSpace(res.Text)
			}
			return nil
		})
	}
	_ = g.Wait()

	var b strings.Builder
	for i, t := range texts {
		if t == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[page %d]\n%s", i+1, t)
	}
	out := b.String()
	if r := []rune(out); len(r) > maxOCRChars {
		out = string(r[:maxOCRChars])
	}
	return out
}
