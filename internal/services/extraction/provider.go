package extraction

import (
	"context"

	"google.golang.org/genai"

	types "github.com/yungbote/lingua-backend/internal/domain"
	"github.com/yungbote/lingua-backend/internal/platform/gemini"
	"github.com/yungbote/lingua-backend/internal/platform/openai"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderNone   = "none"
)

type Image struct {
	Bytes    []byte
	MimeType string
}

type ProviderRequest struct {
	Kind   string
	Prompt Prompt
	Images []Image
}

// Provider sends one multimodal prompt and returns the raw reply text.
type Provider interface {
	Name() string
	Model() string
	Generate(ctx context.Context, req ProviderRequest) (string, error)
}

type openAIProvider struct {
	client openai.Client
}

func NewOpenAIProvider(client openai.Client) Provider {
	return &openAIProvider{client: client}
}

func (p *openAIProvider) Name() string  { return ProviderOpenAI }
func (p *openAIProvider) Model() string { return p.client.Model() }

func (p *openAIProvider) Generate(ctx context.Context, req ProviderRequest) (string, error) {
	images := make([]openai.ImageInput, 0, len(req.Images))
	for _, img := range req.Images {
		images = append(images, openai.ImageInput{Bytes: img.Bytes, MimeType: img.MimeType, Detail: "high"})
	}
	return p.client.GenerateJSONWithImages(ctx, req.Prompt.System, req.Prompt.User, images, req.Prompt.SchemaName, openAISchema(req.Kind))
}

type geminiProvider struct {
	client gemini.Client
}

func NewGeminiProvider(client gemini.Client) Provider {
	return &geminiProvider{client: client}
}

func (p *geminiProvider) Name() string  { return ProviderGemini }
func (p *geminiProvider) Model() string { return p.client.Model() }

func (p *geminiProvider) Generate(ctx context.Context, req ProviderRequest) (string, error) {
	images := make([]gemini.ImagePart, 0, len(req.Images))
	for _, img := range req.Images {
		images = append(images, gemini.ImagePart{Bytes: img.Bytes, MimeType: img.MimeType})
	}
	return p.client.GenerateJSONWithImages(ctx, req.Prompt.System, req.Prompt.User, images, geminiSchema(req.Kind))
}

func entryFields(kind string) (listKey string, fields []string, required string) {
	if kind == types.ExtractionKindConversation {
		return "lines", []string{"speaker", "text", "reading", "translation"}, "text"
	}
	return "items", []string{"term", "reading", "meaning", "part_of_speech", "example", "example_translation"}, "term"
}

// openAISchema is a strict json_schema: every property required, no extras.
func openAISchema(kind string) map[string]any {
	listKey, fields, _ := entryFields(kind)
	props := make(map[string]any, len(fields))
	for _, f := range fields {
		props[f] = map[string]any{"type": "string"}
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			listKey: map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"properties":           props,
					"required":             fields,
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{listKey},
		"additionalProperties": false,
	}
}

func geminiSchema(kind string) *genai.Schema {
	listKey, fields, required := entryFields(kind)
	props := make(map[string]*genai.Schema, len(fields))
	for _, f := range fields {
		props[f] = &genai.Schema{Type: genai.TypeString}
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			listKey: {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type:             genai.TypeObject,
					Properties:       props,
					Required:         []string{required},
					PropertyOrdering: fields,
				},
			},
		},
		Required: []string{listKey},
	}
}
