package gcp

import (
	"errors"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestClassifyVisionError(t *testing.T) {
	err := classifyVisionError(status.Error(codes.ResourceExhausted, "quota"))
	var ve *VisionError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *VisionError, got %T", err)
	}
	if ve.Code != codes.ResourceExhausted || !ve.Temporary() {
		t.Fatalf("unexpected classification: code=%s temporary=%v", ve.Code, ve.Temporary())
	}

	err = classifyVisionError(status.Error(codes.InvalidArgument, "bad image"))
	if !errors.As(err, &ve) || ve.Temporary() {
		t.Fatalf("invalid argument should not be temporary")
	}

	plain := errors.New("dial failed")
	if err := classifyVisionError(plain); !errors.Is(err, plain) {
		t.Fatalf("non-status errors should wrap: %v", err)
	}
}
