package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/lingua-backend/internal/platform/gcp"
	"github.com/yungbote/lingua-backend/internal/platform/logger"
)

var newBucketService = gcp.NewBucketService

type BootstrapErrorCode string

const (
	BootstrapErrorInvalidMode   BootstrapErrorCode = "invalid_mode"
	BootstrapErrorInvalidConfig BootstrapErrorCode = "invalid_config"
	BootstrapErrorConnectFailed BootstrapErrorCode = "connect_failed"
)

// BootstrapError reports which optional backend (object storage, extraction
// provider) failed to come up and why.
type BootstrapError struct {
	Component string
	Code      BootstrapErrorCode
	Mode      string
	Cause     error
}

func (e *BootstrapError) Error() string {
	if e == nil {
		return "bootstrap failed"
	}
	return fmt.Sprintf("%s bootstrap failed (code=%s mode=%q): %v", e.Component, e.Code, e.Mode, e.Cause)
}

func (e *BootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func bootstrapErrorCode(err error) BootstrapErrorCode {
	var be *BootstrapError
	if errors.As(err, &be) && be.Code != "" {
		return be.Code
	}
	return BootstrapErrorConnectFailed
}

// resolveBucketService builds the configured object store. Local mode also
// reports the directory the router should serve at /media.
func resolveBucketService(log *logger.Logger, cfg StorageConfig) (gcp.BucketService, string, error) {
	mode, err := gcp.ParseObjectStorageMode(cfg.Mode)
	if err != nil {
		log.Error("Object storage provider selection failed", "mode", cfg.Mode, "error", err)
		return nil, "", &BootstrapError{Component: "object storage", Code: BootstrapErrorInvalidMode, Mode: cfg.Mode, Cause: err}
	}
	storageCfg := gcp.ObjectStorageConfig{
		Mode:          mode,
		Bucket:        strings.TrimSpace(cfg.Bucket),
		EmulatorHost:  strings.TrimSpace(cfg.EmulatorHost),
		LocalDir:      strings.TrimSpace(cfg.LocalDir),
		PublicBaseURL: strings.TrimSpace(cfg.PublicBaseURL),
	}
	if err := gcp.ValidateObjectStorageConfig(storageCfg); err != nil {
		log.Error("Object storage config invalid", "mode", mode, "error", err)
		return nil, "", &BootstrapError{Component: "object storage", Code: BootstrapErrorInvalidConfig, Mode: string(mode), Cause: err}
	}

	log.Info("Selecting object storage provider", "mode", mode, "bucket", storageCfg.Bucket, "emulator_host", storageCfg.EmulatorHost)
	bucket, err := newBucketService(log, storageCfg)
	if err != nil {
		log.Error("Object storage provider bootstrap failed", "mode", mode, "error", err)
		return nil, "", &BootstrapError{Component: "object storage", Code: BootstrapErrorConnectFailed, Mode: string(mode), Cause: err}
	}
	mediaDir := ""
	if mode == gcp.ObjectStorageModeLocal {
		mediaDir = storageCfg.LocalDir
	}
	return bucket, mediaDir, nil
}
