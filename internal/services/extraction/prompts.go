package extraction

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts/*.yaml
var promptFiles embed.FS

const maxExistingInPrompt = 150

type promptTemplate struct {
	Kind       string `yaml:"kind"`
	SchemaName string `yaml:"schema_name"`
	System     string `yaml:"system"`
	User       string `yaml:"user"`

	user *template.Template
}

// PromptData fills the user template.
type PromptData struct {
	BookTitle      string
	Language       string
	TargetLanguage string
	LessonTitle    string
	Existing       []string
	Hint           string
	OCRText        string
}

type Prompt struct {
	SchemaName string
	System     string
	User       string
}

type promptSet map[string]*promptTemplate

func loadPrompts() (promptSet, error) {
	entries, err := promptFiles.ReadDir("prompts")
	if err != nil {
		return nil, fmt.Errorf("reading embedded prompts: %w", err)
	}
	set := promptSet{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		raw, err := promptFiles.ReadFile("prompts/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("reading prompt %s: %w", entry.Name(), err)
		}
		var pt promptTemplate
		if err := yaml.Unmarshal(raw, &pt); err != nil {
			return nil, fmt.Errorf("parsing prompt %s: %w", entry.Name(), err)
		}
		if pt.Kind == "" || strings.TrimSpace(pt.System) == "" || strings.TrimSpace(pt.User) == "" {
			return nil, fmt.Errorf("prompt %s: kind, system and user are required", entry.Name())
		}
		pt.user, err = template.New(pt.Kind).Option("missingkey=error").Parse(pt.User)
		if err != nil {
			return nil, fmt.Errorf("prompt %s template: %w", entry.Name(), err)
		}
		set[pt.Kind] = &pt
	}
	return set, nil
}

func (ps promptSet) render(kind string, data PromptData) (Prompt, error) {
	pt, ok := ps[kind]
	if !ok {
		return Prompt{}, fmt.Errorf("no prompt for kind %q", kind)
	}
	if len(data.Existing) > maxExistingInPrompt {
		data.Existing = data.Existing[:maxExistingInPrompt]
	}
	var buf bytes.Buffer
	if err := pt.user.Execute(&buf, data); err != nil {
		return Prompt{}, fmt.Errorf("render %s prompt: %w", kind, err)
	}
	return Prompt{
		SchemaName: pt.SchemaName,
		System:     strings.TrimSpace(pt.System),
		User:       strings.TrimSpace(buf.String()),
	}, nil
}
