package ai_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbilashEG/smart-hr-intake/internal/adapter/ai"
	"github.com/AbilashEG/smart-hr-intake/internal/config"
	"github.com/AbilashEG/smart-hr-intake/internal/domain"
)

type recordingInvoker struct {
	resp   []byte
	err    error
	model  string
	bodies []string
}

func (r *recordingInvoker) Invoke(_ context.Context, modelID string, body []byte) ([]byte, error) {
	r.model = modelID
	r.bodies = append(r.bodies, string(body))
	return r.resp, r.err
}

func shapeByName(t *testing.T, name string) config.ShapeDef {
	t.Helper()
	defs, err := config.SelectShapes(config.DefaultShapes(), []string{name})
	require.NoError(t, err)
	return defs[0]
}

func TestBuildBody_DefaultShapes(t *testing.T) {
	t.Parallel()
	opts := domain.GenerationOptions{MaxTokens: 1000, Temperature: 0.7}
	tests := []struct {
		shape string
		want  string
	}{
		{"input", `{"input":"P","max_tokens":1000,"temperature":0.7}`},
		{"prompt", `{"prompt":"P","max_tokens":1000,"temperature":0.7}`},
		{"messages", `{"messages":[{"role":"user","content":"P"}],"max_tokens":1000,"temperature":0.7}`},
		{"text", `{"text":"P","max_tokens":1000,"temperature":0.7}`},
		{"input_bare", `{"input":"P"}`},
	}
	for _, tt := range tests {
		t.Run(tt.shape, func(t *testing.T) {
			body, err := ai.BuildBody(shapeByName(t, tt.shape), "P", opts)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(body))
		})
	}
}

func TestProbeOutput(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"output", `{"output":" 1. A "}`, "1. A"},
		{"completion", `{"completion":"1. B"}`, "1. B"},
		{"choices text", `{"choices":[{"text":"1. C"}]}`, "1. C"},
		{"choices message", `{"choices":[{"message":{"role":"assistant","content":"1. D"}}]}`, "1. D"},
		{"response", `{"response":"1. E"}`, "1. E"},
		{"generation", `{"generation":"1. F","stop_reason":"stop"}`, "1. F"},
		{"outputs list", `{"outputs":[{"text":"1. G"}]}`, "1. G"},
		{"earlier field wins", `{"completion":"second","output":"first"}`, "first"},
		{"empty field skipped", `{"output":"","response":"1. H"}`, "1. H"},
		{"non-string skipped", `{"output":{"x":1},"completion":"1. I"}`, "1. I"},
		{"json string", `"1. J"`, "1. J"},
		{"unknown layout", `{"data":"1. K"}`, ""},
		{"empty choices", `{"choices":[]}`, ""},
		{"plain text", "1. L\n2. M", "1. L\n2. M"},
		{"json inside prose", `Result: {"output":"1. N"}`, "1. N"},
		{"blank", "  ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ai.ProbeOutput([]byte(tt.raw)))
		})
	}
}

func TestBodyShape_Generate(t *testing.T) {
	t.Parallel()
	inv := &recordingInvoker{resp: []byte("{\"completion\":\"```\\n**1.** Explain goroutines\\n```\"}")}
	shape := ai.NewBodyShape(shapeByName(t, "prompt"), "model-x", inv)

	out, err := shape.Generate(context.Background(), "ask", domain.GenerationOptions{MaxTokens: 10, Temperature: 0.5})
	require.NoError(t, err)
	assert.Equal(t, "prompt", shape.Name())
	assert.Equal(t, "1. Explain goroutines", out)
	assert.Equal(t, "model-x", inv.model)
	require.Len(t, inv.bodies, 1)
	assert.JSONEq(t, `{"prompt":"ask","max_tokens":10,"temperature":0.5}`, inv.bodies[0])
}

func TestBodyShape_GenerateError(t *testing.T) {
	t.Parallel()
	inv := &recordingInvoker{err: errors.New("boom")}
	_, err := ai.NewBodyShape(shapeByName(t, "text"), "m", inv).Generate(context.Background(), "p", domain.GenerationOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=ai.shape.text")
}
