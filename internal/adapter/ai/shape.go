package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/AbilashEG/smart-hr-intake/internal/config"
	"github.com/AbilashEG/smart-hr-intake/internal/domain"
)

// outputPaths are probed in order; the first non-empty string wins.
var outputPaths = [][]string{
	{"output"},
	{"completion"},
	{"choices", "0", "text"},
	{"choices", "0", "message", "content"},
	{"response"},
	{"generation"},
	{"generated_text"},
	{"outputs", "0", "text"},
	{"results", "0", "outputText"},
}

// BodyShape is a domain.GenerationShape that sends one JSON layout through a ModelInvoker.
type BodyShape struct {
	def     config.ShapeDef
	modelID string
	invoker domain.ModelInvoker
	cleaner *ResponseCleaner
}

// NewBodyShape builds the shape described by def.
func NewBodyShape(def config.ShapeDef, modelID string, invoker domain.ModelInvoker) *BodyShape {
	return &BodyShape{def: def, modelID: modelID, invoker: invoker, cleaner: NewResponseCleaner()}
}

// Name returns the configured shape name.
func (s *BodyShape) Name() string { return s.def.Name }

// Generate sends the prompt and returns the probed text, cleaned.
func (s *BodyShape) Generate(ctx context.Context, prompt string, opts domain.GenerationOptions) (string, error) {
	body, err := BuildBody(s.def, prompt, opts)
	if err != nil {
		return "", fmt.Errorf("op=ai.shape.%s: %w", s.def.Name, err)
	}
	raw, err := s.invoker.Invoke(ctx, s.modelID, body)
	if err != nil {
		return "", fmt.Errorf("op=ai.shape.%s: %w", s.def.Name, err)
	}
	return s.cleaner.Clean(ProbeOutput(raw)), nil
}

// BuildBody renders the request body for def.
func BuildBody(def config.ShapeDef, prompt string, opts domain.GenerationOptions) ([]byte, error) {
	body := map[string]any{}
	if def.Chat {
		body[def.PromptField] = []map[string]string{{"role": "user", "content": prompt}}
	} else {
		body[def.PromptField] = prompt
	}
	if def.Sampling {
		body["max_tokens"] = opts.MaxTokens
		body["temperature"] = opts.Temperature
	}
	return json.Marshal(body)
}

// ProbeOutput finds the generated text in a response body of unknown layout.
// A body that is not JSON is taken as the text itself. A JSON body with none
// of the known fields yields "".
func ProbeOutput(raw []byte) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return ""
	}
	var doc any
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		embedded := NewResponseCleaner().ExtractJSON(trimmed)
		if embedded == "" || json.Unmarshal([]byte(embedded), &doc) != nil {
			return trimmed
		}
		if out := probe(doc); out != "" {
			return out
		}
		return trimmed
	}
	if s, ok := doc.(string); ok {
		return strings.TrimSpace(s)
	}
	return probe(doc)
}

func probe(doc any) string {
	for _, path := range outputPaths {
		if s, ok := lookup(doc, path).(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func lookup(v any, path []string) any {
	for _, seg := range path {
		switch node := v.(type) {
		case map[string]any:
			v = node[seg]
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil
			}
			v = node[i]
		default:
			return nil
		}
	}
	return v
}
