// Package tokencount estimates prompt sizes with tiktoken. The BPE ranks are
// embedded, so counting never touches the network.
package tokencount

import (
	"log/slog"
	"strings"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

const fallbackEncoding = "cl100k_base"

func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// Counter implements domain.TokenCounter for one model.
type Counter struct {
	model string

	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewCounter returns a counter for model. The encoding loads on first use.
func NewCounter(model string) *Counter {
	return &Counter{model: model}
}

func (c *Counter) encoding() *tiktoken.Tiktoken {
	c.once.Do(func() {
		name := normalizeModelName(c.model)
		enc, err := tiktoken.EncodingForModel(name)
		if err != nil {
			slog.Debug("falling back to cl100k_base encoding",
				slog.String("model", c.model),
				slog.String("normalized", name),
				slog.Any("error", err))
			enc, err = tiktoken.GetEncoding(fallbackEncoding)
			if err != nil {
				slog.Warn("token encoding unavailable, using length estimate", slog.Any("error", err))
				return
			}
		}
		c.enc = enc
	})
	return c.enc
}

// Count returns the token count of text, or a four-characters-per-token
// estimate if no encoding could be loaded.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	enc := c.encoding()
	if enc == nil {
		return (len(text) + 3) / 4
	}
	return len(enc.Encode(text, nil, nil))
}

// normalizeModelName maps provider model ids onto names tiktoken knows.
func normalizeModelName(model string) string {
	model = strings.ToLower(model)
	if i := strings.LastIndex(model, "/"); i >= 0 {
		model = model[i+1:]
	}
	// bedrock style ids: "meta.llama3-70b-instruct-v1:0"
	if i := strings.Index(model, ":"); i >= 0 {
		model = model[:i]
	}
	switch {
	case strings.Contains(model, "gpt-3.5"):
		return "gpt-3.5-turbo"
	case strings.Contains(model, "gpt-4o"):
		return "gpt-4o"
	default:
		// llama, mistral, gemini, claude and unknown ids share the gpt-4 approximation
		return "gpt-4"
	}
}
