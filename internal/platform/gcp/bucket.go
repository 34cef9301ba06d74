package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/yungbote/lingua-backend/internal/platform/dbctx"
	"github.com/yungbote/lingua-backend/internal/platform/logger"
)

type BucketCategory string

const (
	BucketCategoryCover      BucketCategory = "cover"
	BucketCategoryExtraction BucketCategory = "extraction"
)

// ErrObjectNotFound is returned by DownloadFile for a missing key.
var ErrObjectNotFound = errors.New("object not found")

type BucketService interface {
	UploadFile(dbc dbctx.Context, category BucketCategory, key string, file io.Reader) error
	DeleteFile(dbc dbctx.Context, category BucketCategory, key string) error
	DownloadFile(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error)
	DeletePrefix(ctx context.Context, category BucketCategory, prefix string) error
	GetPublicURL(category BucketCategory, key string) string
}

// NewBucketService picks the implementation for cfg.Mode.
func NewBucketService(log *logger.Logger, cfg ObjectStorageConfig) (BucketService, error) {
	if err := ValidateObjectStorageConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	serviceLog := log.With("service", "BucketService")
	if cfg.Mode == ObjectStorageModeLocal {
		serviceLog.Info("Object storage initialized", "mode", cfg.Mode, "dir", cfg.LocalDir)
		return NewLocalBucketService(serviceLog, cfg.LocalDir, cfg.PublicBaseURL)
	}

	ctx := context.Background()
	stClient, err := newStorageClientForMode(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	publicBase := strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	if publicBase == "" && cfg.Mode == ObjectStorageModeGCSEmulator {
		publicBase = strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/") + "/" + cfg.Bucket
	}
	serviceLog.Info("Object storage initialized", "mode", cfg.Mode, "bucket", cfg.Bucket, "public_base_url", publicBase)
	return &gcsBucketService{
		log:           serviceLog,
		storageClient: stClient,
		bucket:        cfg.Bucket,
		publicBaseURL: publicBase,
	}, nil
}

func newStorageClientForMode(ctx context.Context, cfg ObjectStorageConfig) (*storage.Client, error) {
	switch cfg.Mode {
	case ObjectStorageModeGCS:
		opts := ClientOptionsFromEnv()
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
		return storage.NewClient(ctx, opts...)
	case ObjectStorageModeGCSEmulator:
		_ = os.Setenv("STORAGE_EMULATOR_HOST", strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/"))
		return storage.NewClient(ctx, option.WithoutAuthentication())
	default:
		return nil, fmt.Errorf("no storage client for mode %q", cfg.Mode)
	}
}

func objectName(category BucketCategory, key string) string {
	return path.Join(string(category), strings.TrimLeft(key, "/"))
}

type gcsBucketService struct {
	log           *logger.Logger
	storageClient *storage.Client
	bucket        string
	publicBaseURL string
}

func (bs *gcsBucketService) UploadFile(dbc dbctx.Context, category BucketCategory, key string, file io.Reader) error {
	ctx, cancel := context.WithTimeout(dbc.Ctx, 2*time.Minute)
	defer cancel()

	w := bs.storageClient.Bucket(bs.bucket).Object(objectName(category, key)).NewWriter(ctx)
	if ct := ContentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (bs *gcsBucketService) DeleteFile(dbc dbctx.Context, category BucketCategory, key string) error {
	ctx, cancel := context.WithTimeout(dbc.Ctx, 30*time.Second)
	defer cancel()
	name := objectName(category, key)
	if err := bs.storageClient.Bucket(bs.bucket).Object(name).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", name, bs.bucket, err)
	}
	return nil
}

func (bs *gcsBucketService) DownloadFile(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error) {
	r, err := bs.storageClient.Bucket(bs.bucket).Object(objectName(category, key)).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open GCS object: %w", err)
	}
	return r, nil
}

func (bs *gcsBucketService) DeletePrefix(ctx context.Context, category BucketCategory, prefix string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	bkt := bs.storageClient.Bucket(bs.bucket)
	it := bkt.Objects(ctx, &storage.Query{Prefix: objectName(category, prefix)})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("list GCS prefix: %w", err)
		}
		if err := bkt.Object(attrs.Name).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("delete %q: %w", attrs.Name, err)
		}
	}
}

func (bs *gcsBucketService) GetPublicURL(category BucketCategory, key string) string {
	name := objectName(category, key)
	if bs.publicBaseURL != "" {
		return bs.publicBaseURL + "/" + escapePath(name)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bs.bucket, escapePath(name))
}

// localBucketService keeps objects on disk; used for development and tests.
type localBucketService struct {
	log           *logger.Logger
	root          string
	publicBaseURL string
}

func NewLocalBucketService(log *logger.Logger, root, publicBaseURL string) (BucketService, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &localBucketService{log: log, root: abs, publicBaseURL: strings.TrimRight(publicBaseURL, "/")}, nil
}

// Root is the directory served under /media in local mode.
func (ls *localBucketService) Root() string { return ls.root }

func (ls *localBucketService) pathFor(category BucketCategory, key string) (string, error) {
	p := filepath.Join(ls.root, filepath.FromSlash(objectName(category, key)))
	if !strings.HasPrefix(p, ls.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return p, nil
}

func (ls *localBucketService) UploadFile(dbc dbctx.Context, category BucketCategory, key string, file io.Reader) error {
	p, err := ls.pathFor(category, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	tmp := p + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, file); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write object: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, p)
}

func (ls *localBucketService) DeleteFile(dbc dbctx.Context, category BucketCategory, key string) error {
	p, err := ls.pathFor(category, key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (ls *localBucketService) DownloadFile(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error) {
	p, err := ls.pathFor(category, key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrObjectNotFound
	}
	return f, err
}

func (ls *localBucketService) DeletePrefix(ctx context.Context, category BucketCategory, prefix string) error {
	p, err := ls.pathFor(category, prefix)
	if err != nil {
		return err
	}
	return os.RemoveAll(p)
}

func (ls *localBucketService) GetPublicURL(category BucketCategory, key string) string {
	return ls.publicBaseURL + "/media/" + escapePath(objectName(category, key))
}

func escapePath(name string) string {
	parts := strings.Split(name, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func ContentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	switch {
	case strings.HasSuffix(s, ".png"):
		return "image/png"
	case strings.HasSuffix(s, ".jpg"), strings.HasSuffix(s, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(s, ".webp"):
		return "image/webp"
	case strings.HasSuffix(s, ".gif"):
		return "image/gif"
	case strings.HasSuffix(s, ".json"):
		return "application/json"
	default:
		return ""
	}
}
