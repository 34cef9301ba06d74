package gcp

import "testing"

func TestParseObjectStorageMode(t *testing.T) {
	cases := []struct {
		raw  string
		want ObjectStorageMode
	}{
		{"", ObjectStorageModeLocal},
		{"GCS", ObjectStorageModeGCS},
		{" gcs_emulator", ObjectStorageModeGCSEmulator},
	}
	for _, tc := range cases {
		got, err := ParseObjectStorageMode(tc.raw)
		if err != nil || got != tc.want {
			t.Fatalf("ParseObjectStorageMode(%q): got=%q err=%v", tc.raw, got, err)
		}
	}
	if _, err := ParseObjectStorageMode("s3"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestValidateObjectStorageConfig(t *testing.T) {
	if err := ValidateObjectStorageConfig(ObjectStorageConfig{Mode: ObjectStorageModeGCS}); err == nil {
		t.Fatalf("gcs without bucket should fail")
	}
	if err := ValidateObjectStorageConfig(ObjectStorageConfig{Mode: ObjectStorageModeLocal, LocalDir: "/tmp/x", PublicBaseURL: "not a url"}); err == nil {
		t.Fatalf("relative public base should fail")
	}
	if err := ValidateObjectStorageConfig(ObjectStorageConfig{Mode: ObjectStorageModeLocal, LocalDir: "/tmp/x", PublicBaseURL: "http://localhost:8080"}); err != nil {
		t.Fatalf("valid local config: %v", err)
	}
}
