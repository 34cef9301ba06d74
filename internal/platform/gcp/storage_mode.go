package gcp

import (
	"fmt"
	"net/url"
	"strings"
)

type ObjectStorageMode string

const (
	ObjectStorageModeGCS         ObjectStorageMode = "gcs"
	ObjectStorageModeGCSEmulator ObjectStorageMode = "gcs_emulator"
	ObjectStorageModeLocal       ObjectStorageMode = "local"
)

type ObjectStorageConfig struct {
	Mode          ObjectStorageMode
	Bucket        string
	EmulatorHost  string
	LocalDir      string
	PublicBaseURL string
}

func ParseObjectStorageMode(raw string) (ObjectStorageMode, error) {
	switch ObjectStorageMode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ObjectStorageModeLocal:
		return ObjectStorageModeLocal, nil
	case ObjectStorageModeGCS:
		return ObjectStorageModeGCS, nil
	case ObjectStorageModeGCSEmulator:
		return ObjectStorageModeGCSEmulator, nil
	default:
		return "", fmt.Errorf("invalid object storage mode %q (expected gcs, gcs_emulator or local)", raw)
	}
}

func ValidateObjectStorageConfig(cfg ObjectStorageConfig) error {
	switch cfg.Mode {
	case ObjectStorageModeGCS:
		if strings.TrimSpace(cfg.Bucket) == "" {
			return fmt.Errorf("gcs mode requires a bucket name")
		}
	case ObjectStorageModeGCSEmulator:
		if strings.TrimSpace(cfg.Bucket) == "" {
			return fmt.Errorf("gcs_emulator mode requires a bucket name")
		}
		if strings.TrimSpace(cfg.EmulatorHost) == "" {
			return fmt.Errorf("gcs_emulator mode requires an emulator host")
		}
	case ObjectStorageModeLocal:
		if strings.TrimSpace(cfg.LocalDir) == "" {
			return fmt.Errorf("local mode requires a storage directory")
		}
	default:
		return fmt.Errorf("invalid object storage mode %q", cfg.Mode)
	}
	if raw := strings.TrimSpace(cfg.PublicBaseURL); raw != "" {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid public base url %q; expected absolute URL", raw)
		}
	}
	return nil
}
