package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"api error", New(http.StatusBadGateway, "provider_failed", errors.New("boom")), http.StatusBadGateway, "provider_failed"},
		{"wrapped api error", fmt.Errorf("outer: %w", NotFound("lesson")), http.StatusNotFound, "not_found"},
		{"sentinel", fmt.Errorf("x: %w", ErrForbidden), http.StatusForbidden, "forbidden"},
		{"invalid", Invalid("term required"), http.StatusBadRequest, "invalid_request"},
		{"plain", errors.New("db down"), http.StatusInternalServerError, "load_failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, code := Resolve(tc.err, "load_failed")
			if status != tc.wantStatus || code != tc.wantCode {
				t.Fatalf("Resolve: got=(%d,%q) want=(%d,%q)", status, code, tc.wantStatus, tc.wantCode)
			}
		})
	}
}

func TestInvalidWrapsSentinel(t *testing.T) {
	if !errors.Is(Invalid("x"), ErrInvalidArgument) {
		t.Fatalf("Invalid should wrap ErrInvalidArgument")
	}
}
