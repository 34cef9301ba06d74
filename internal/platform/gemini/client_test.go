package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yungbote/lingua-backend/internal/platform/logger"
)

const okReply = `{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"items\":[]}"}]}}],"usageMetadata":{"promptTokenCount":12,"candidatesTokenCount":4}}`

// captureServer answers every call with reply and records the last request body.
func captureServer(t *testing.T, reply string, got *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/m1:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "g-test" {
			t.Errorf("missing api key header")
		}
		raw, _ := io.ReadAll(r.Body)
		if got != nil {
			_ = json.Unmarshal(raw, got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerateJSONWithImagesSendsInlineImages(t *testing.T) {
	var got map[string]any
	srv := captureServer(t, okReply, &got)

	c, err := NewClient(context.Background(), logger.Nop(), Config{APIKey: "g-test", BaseURL: srv.URL, Model: "m1"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	text, err := c.GenerateJSONWithImages(context.Background(), "sys", "usr",
		[]ImagePart{{Bytes: []byte{1, 2, 3}, MimeType: "image/png"}, {Bytes: nil}}, nil)
	if err != nil {
		t.Fatalf("GenerateJSONWithImages: %v", err)
	}
	if text != `{"items":[]}` {
		t.Fatalf("unexpected text %q", text)
	}

	contents := got["contents"].([]any)
	parts := contents[0].(map[string]any)["parts"].([]any)
	if len(parts) != 2 {
		t.Fatalf("expected text + 1 image (empty image skipped), got %d parts", len(parts))
	}
	inline := parts[1].(map[string]any)["inlineData"].(map[string]any)
	if inline["mimeType"] != "image/png" {
		t.Fatalf("unexpected inline data %v", inline)
	}
	if _, ok := got["systemInstruction"]; !ok {
		t.Fatalf("system instruction missing")
	}
	gen := got["generationConfig"].(map[string]any)
	if gen["responseMimeType"] != "application/json" {
		t.Fatalf("unexpected generation config %v", gen)
	}
	if _, ok := gen["temperature"]; ok {
		t.Fatalf("temperature sent although none was configured: %v", gen)
	}
}

func TestConfiguredTemperatureIsSent(t *testing.T) {
	var got map[string]any
	srv := captureServer(t, okReply, &got)

	temp := float32(0.25)
	c, err := NewClient(context.Background(), logger.Nop(), Config{APIKey: "g-test", BaseURL: srv.URL, Model: "m1", Temperature: &temp})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.GenerateJSONWithImages(context.Background(), "s", "u", nil, nil); err != nil {
		t.Fatalf("GenerateJSONWithImages: %v", err)
	}
	gen := got["generationConfig"].(map[string]any)
	if v, ok := gen["temperature"].(float64); !ok || v != 0.25 {
		t.Fatalf("expected temperature 0.25, got %v", gen["temperature"])
	}
}

func TestBlockedPromptIsError(t *testing.T) {
	srv := captureServer(t, `{"promptFeedback":{"blockReason":"SAFETY"}}`, nil)
	c, err := NewClient(context.Background(), logger.Nop(), Config{APIKey: "g-test", BaseURL: srv.URL, Model: "m1"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.GenerateJSONWithImages(context.Background(), "s", "u", nil, nil); err == nil || !strings.Contains(err.Error(), "refused") {
		t.Fatalf("expected refusal error, got %v", err)
	}
}

func TestEmptyReplyIsError(t *testing.T) {
	srv := captureServer(t, `{"candidates":[]}`, nil)
	c, err := NewClient(context.Background(), logger.Nop(), Config{APIKey: "g-test", BaseURL: srv.URL, Model: "m1"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.GenerateJSONWithImages(context.Background(), "s", "u", nil, nil); err == nil {
		t.Fatal("expected error for a reply without text")
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(context.Background(), logger.Nop(), Config{Model: "m1"}); err == nil {
		t.Fatal("expected missing key error")
	}
}
