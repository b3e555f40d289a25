// Package docxtext extracts paragraph text from Word (.docx) documents.
package docxtext

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

// Parser implements domain.DocumentParser for .docx files.
type Parser struct{}

// New returns a .docx parser.
func New() Parser { return Parser{} }

// ExtractText returns the document body with one line per paragraph.
func (Parser) ExtractText(ctx context.Context, data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("op=docx.open: %w", err)
	}
	defer func() { _ = r.Close() }()
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("op=docx.extract: %w", err)
	}
	text, err := paragraphs(r.Editable().GetContent())
	if err != nil {
		return "", fmt.Errorf("op=docx.extract: %w", err)
	}
	return text, nil
}

// paragraphs walks WordprocessingML: w:t runs are text, w:tab and w:br are
// whitespace and every w:p closes a line.
func paragraphs(documentXML string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(documentXML))
	var b, line strings.Builder
	flush := func() {
		if l := strings.TrimSpace(line.String()); l != "" {
			b.WriteString(l)
			b.WriteByte('\n')
		}
		line.Reset()
	}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "t":
				var s string
				if err := dec.DecodeElement(&s, &el); err != nil {
					return "", err
				}
				line.WriteString(s)
			case "tab":
				line.WriteByte('\t')
			case "br", "cr":
				flush()
			}
		case xml.EndElement:
			if el.Name.Local == "p" {
				flush()
			}
		}
	}
	flush()
	return strings.TrimRight(b.String(), "\n"), nil
}
