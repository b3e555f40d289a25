package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Shape kinds.
const (
	// ShapeKindBody posts a JSON body to GENERATION_INVOKE_URL.
	ShapeKindBody = "body"
	// ShapeKindGemini calls the Gemini API through the genai SDK.
	ShapeKindGemini = "gemini"
)

// ShapeDef describes one generation request shape.
type ShapeDef struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
	// PromptField is the top-level body field that carries the prompt.
	PromptField string `yaml:"prompt_field"`
	// Chat wraps the prompt as [{"role":"user","content":prompt}].
	Chat bool `yaml:"chat"`
	// Sampling adds max_tokens and temperature to the body.
	Sampling bool `yaml:"sampling"`
}

// ShapesYAML is the layout of GENERATION_SHAPES_FILE.
type ShapesYAML struct {
	Shapes []ShapeDef `yaml:"shapes"`
}

// DefaultShapes is the built-in shape catalog in its default order.
func DefaultShapes() []ShapeDef {
	return []ShapeDef{
		{Name: "input", Kind: ShapeKindBody, PromptField: "input", Sampling: true},
		{Name: "prompt", Kind: ShapeKindBody, PromptField: "prompt", Sampling: true},
		{Name: "messages", Kind: ShapeKindBody, PromptField: "messages", Chat: true, Sampling: true},
		{Name: "text", Kind: ShapeKindBody, PromptField: "text", Sampling: true},
		{Name: "input_bare", Kind: ShapeKindBody, PromptField: "input"},
		{Name: "gemini", Kind: ShapeKindGemini},
	}
}

// LoadShapesFile reads a shape catalog from a YAML file.
func LoadShapesFile(path string) ([]ShapeDef, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	// #nosec G304 -- operator supplied configuration file
	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read shapes file: %w", err)
	}
	var doc ShapesYAML
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse shapes file: %w", err)
	}
	for i, d := range doc.Shapes {
		if err := d.validate(); err != nil {
			return nil, fmt.Errorf("shapes[%d]: %w", i, err)
		}
	}
	return doc.Shapes, nil
}

// SelectShapes returns the catalog entries named in order, rejecting unknown or repeated names.
func SelectShapes(catalog []ShapeDef, order []string) ([]ShapeDef, error) {
	byName := make(map[string]ShapeDef, len(catalog))
	for _, d := range catalog {
		byName[d.Name] = d
	}
	seen := make(map[string]bool, len(order))
	out := make([]ShapeDef, 0, len(order))
	for _, raw := range order {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		d, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown generation shape %q", name)
		}
		if seen[name] {
			return nil, fmt.Errorf("generation shape %q listed twice", name)
		}
		seen[name] = true
		out = append(out, d)
	}
	return out, nil
}

func (d ShapeDef) validate() error {
	if d.Name == "" {
		return fmt.Errorf("shape name is required")
	}
	switch d.Kind {
	case ShapeKindBody:
		if d.PromptField == "" {
			return fmt.Errorf("shape %q: prompt_field is required", d.Name)
		}
	case ShapeKindGemini:
	default:
		return fmt.Errorf("shape %q: unknown kind %q", d.Name, d.Kind)
	}
	return nil
}
