package gcp

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/yungbote/lingua-backend/internal/platform/dbctx"
	"github.com/yungbote/lingua-backend/internal/platform/logger"
)

func TestLocalBucketRoundTrip(t *testing.T) {
	ctx := context.Background()
	bs, err := NewLocalBucketService(logger.Nop(), t.TempDir(), "http://localhost:8080/")
	if err != nil {
		t.Fatalf("NewLocalBucketService: %v", err)
	}

	key := "run-1/0.jpg"
	if err := bs.UploadFile(dbctx.Context{Ctx: ctx}, BucketCategoryExtraction, key, strings.NewReader("jpegbytes")); err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	rc, err := bs.DownloadFile(ctx, BucketCategoryExtraction, key)
	if err != nil {
		t.Fatalf("DownloadFile: %v", err)
	}
	raw, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(raw) != "jpegbytes" {
		t.Fatalf("DownloadFile: got=%q", raw)
	}

	if got := bs.GetPublicURL(BucketCategoryExtraction, key); got != "http://localhost:8080/media/extraction/run-1/0.jpg" {
		t.Fatalf("GetPublicURL: got=%q", got)
	}

	if err := bs.DeletePrefix(ctx, BucketCategoryExtraction, "run-1"); err != nil {
		t.Fatalf("DeletePrefix: %v", err)
	}
	if _, err := bs.DownloadFile(ctx, BucketCategoryExtraction, key); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("DownloadFile after delete: err=%v", err)
	}
	if err := bs.DeleteFile(dbctx.Context{Ctx: ctx}, BucketCategoryExtraction, key); err != nil {
		t.Fatalf("DeleteFile missing should be nil: %v", err)
	}
}

func TestLocalBucketRejectsTraversal(t *testing.T) {
	bs, err := NewLocalBucketService(logger.Nop(), t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewLocalBucketService: %v", err)
	}
	err = bs.UploadFile(dbctx.Context{Ctx: context.Background()}, BucketCategoryCover, "../../etc/passwd", strings.NewReader("x"))
	if err == nil {
		t.Fatalf("expected traversal to be rejected")
	}
}

func TestContentTypeForKey(t *testing.T) {
	if got := ContentTypeForKey("a/b.JPEG"); got != "image/jpeg" {
		t.Fatalf("got=%q", got)
	}
	if got := ContentTypeForKey("a/b.bin"); got != "" {
		t.Fatalf("got=%q", got)
	}
}
