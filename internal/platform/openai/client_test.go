package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/yungbote/lingua-backend/internal/platform/logger"
)

const okReply = `{"output":[{"type":"message","role":"assistant","content":[{"type":"output_text","text":"{\"items\":[]}"}]}],"usage":{"input_tokens":10,"output_tokens":3}}`

func TestGenerateJSONWithImagesSendsImagesAndSchema(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/responses" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("missing auth header")
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got)
		_, _ = io.WriteString(w, okReply)
	}))
	defer srv.Close()

	c, err := NewClient(logger.Nop(), Config{APIKey: "sk-test", BaseURL: srv.URL, Model: "m1"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	text, err := c.GenerateJSONWithImages(context.Background(), "sys", "usr",
		[]ImageInput{{Bytes: []byte{1, 2, 3}, MimeType: "image/png"}},
		"vocab", map[string]any{"type": "object"})
	if err != nil {
		t.Fatalf("GenerateJSONWithImages: %v", err)
	}
	if text != `{"items":[]}` {
		t.Fatalf("unexpected text %q", text)
	}

	input := got["input"].([]any)
	user := input[1].(map[string]any)
	parts := user["content"].([]any)
	if len(parts) != 2 {
		t.Fatalf("expected text + 1 image, got %d parts", len(parts))
	}
	img := parts[1].(map[string]any)
	if !strings.HasPrefix(img["image_url"].(string), "data:image/png;base64,") {
		t.Fatalf("image not sent as data url: %v", img["image_url"])
	}
	format := got["text"].(map[string]any)["format"].(map[string]any)
	if format["type"] != "json_schema" || format["name"] != "vocab" {
		t.Fatalf("unexpected format %v", format)
	}
}

func TestRetriesOnServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, okReply)
	}))
	defer srv.Close()

	c, _ := NewClient(logger.Nop(), Config{APIKey: "k", BaseURL: srv.URL, MaxRetries: 2})
	if _, err := c.GenerateJSONWithImages(context.Background(), "s", "u", nil, "", nil); err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestDropsTemperatureWhenRejected(t *testing.T) {
	var withTemp, withoutTemp int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		if _, ok := body["temperature"]; ok {
			atomic.AddInt32(&withTemp, 1)
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":{"message":"Unsupported parameter: 'temperature' is not supported with this model."}}`)
			return
		}
		atomic.AddInt32(&withoutTemp, 1)
		_, _ = io.WriteString(w, okReply)
	}))
	defer srv.Close()

	temp := 0.2
	c, _ := NewClient(logger.Nop(), Config{APIKey: "k", BaseURL: srv.URL, Model: "reasoner", Temperature: &temp})
	for i := 0; i < 2; i++ {
		if _, err := c.GenerateJSONWithImages(context.Background(), "s", "u", nil, "", nil); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if withTemp != 1 || withoutTemp != 2 {
		t.Fatalf("expected one rejected call then none: withTemp=%d withoutTemp=%d", withTemp, withoutTemp)
	}
}

func TestRefusalIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"output":[{"type":"message","role":"assistant","content":[{"type":"refusal","refusal":"no"}]}]}`)
	}))
	defer srv.Close()
	c, _ := NewClient(logger.Nop(), Config{APIKey: "k", BaseURL: srv.URL})
	if _, err := c.GenerateJSONWithImages(context.Background(), "s", "u", nil, "", nil); err == nil || !strings.Contains(err.Error(), "refused") {
		t.Fatalf("expected refusal error, got %v", err)
	}
}
