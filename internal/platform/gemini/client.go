package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/yungbote/lingua-backend/internal/observability"
	"github.com/yungbote/lingua-backend/internal/platform/logger"
)

type ImagePart struct {
	Bytes    []byte
	MimeType string
}

// Client sends multimodal prompts to Gemini and returns JSON text.
type Client interface {
	Model() string
	GenerateJSONWithImages(ctx context.Context, system, user string, images []ImagePart, schema *genai.Schema) (string, error)
}

type Config struct {
	APIKey string
	// BaseURL overrides the Gemini API endpoint; empty uses the default.
	BaseURL string
	Model   string
	// Nil leaves the temperature to the model default.
	Temperature *float32
}

type client struct {
	log   *logger.Logger
	genai *genai.Client
	model string
	temp  *float32
}

func NewClient(ctx context.Context, log *logger.Logger, cfg Config) (Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-2.5-flash"
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: strings.TrimSpace(cfg.BaseURL)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &client{
		log:   log.With("service", "GeminiClient"),
		genai: gc,
		model: model,
		temp:  cfg.Temperature,
	}, nil
}

func (c *client) Model() string { return c.model }

func (c *client) GenerateJSONWithImages(ctx context.Context, system, user string, images []ImagePart, schema *genai.Schema) (string, error) {
	parts := make([]*genai.Part, 0, 1+len(images))
	parts = append(parts, genai.NewPartFromText(user))
	for _, img := range images {
		if len(img.Bytes) == 0 {
			continue
		}
		mt := img.MimeType
		if mt == "" {
			mt = "image/jpeg"
		}
		parts = append(parts, genai.NewPartFromBytes(img.Bytes, mt))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    schema,
	}
	if c.temp != nil {
		temp := *c.temp
		cfg.Temperature = &temp
	}

	start := time.Now()
	resp, err := c.genai.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		if m := observability.Current(); m != nil {
			m.ObserveLLMRequest("gemini", c.model, "error", time.Since(start), 0, 0)
		}
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if m := observability.Current(); m != nil {
		var in, out int
		if resp.UsageMetadata != nil {
			in = int(resp.UsageMetadata.PromptTokenCount)
			out = int(resp.UsageMetadata.CandidatesTokenCount)
		}
		m.ObserveLLMRequest("gemini", c.model, "ok", time.Since(start), in, out)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("model refused: %s", resp.PromptFeedback.BlockReason)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini returned no text")
	}
	return text, nil
}
