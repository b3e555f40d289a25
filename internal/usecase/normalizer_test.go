package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbilashEG/smart-hr-intake/internal/config"
	"github.com/AbilashEG/smart-hr-intake/internal/domain"
	"github.com/AbilashEG/smart-hr-intake/internal/usecase"
)

var fastPoll = config.PollConfig{
	InitialInterval: time.Millisecond,
	MaxInterval:     2 * time.Millisecond,
	Multiplier:      1.5,
	MaxAttempts:     5,
	Timeout:         time.Second,
}

var longText = strings.Repeat("Senior Go engineer with distributed systems experience. ", 4)

func pdfDoc() domain.RawDocument {
	return domain.RawDocument{Content: []byte("%PDF-1.4 fake"), MediaType: "application/pdf", Filename: "cv.pdf"}
}

func TestClassifyMedia(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		mediaType string
		filename  string
		data      []byte
		want      domain.MediaKind
	}{
		{"declared pdf", "application/pdf", "x", nil, domain.MediaPDF},
		{"declared docx with params", "application/vnd.openxmlformats-officedocument.wordprocessingml.document; charset=binary", "", nil, domain.MediaDOCX},
		{"msword", "application/msword", "", nil, domain.MediaDOC},
		{"ole container", "application/x-ole-storage", "", nil, domain.MediaDOC},
		{"legacy doc extension", "application/octet-stream", "cv.doc", nil, domain.MediaDOC},
		{"image", "image/png", "", nil, domain.MediaImage},
		{"text", "text/plain; charset=utf-8", "", nil, domain.MediaText},
		{"octet stream uses extension", "application/octet-stream", "resume.DOCX", nil, domain.MediaDOCX},
		{"extension jpg", "", "scan.jpeg", nil, domain.MediaImage},
		{"sniff pdf", "", "noext", []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n"), domain.MediaPDF},
		{"sniff text", "", "noext", []byte("Jane Doe\njane@example.com\n"), domain.MediaText},
		{"unknown", "", "", nil, domain.MediaOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, usecase.ClassifyMedia(tt.mediaType, tt.filename, tt.data))
		})
	}
}

func TestNormalizer_SyncOCRWins(t *testing.T) {
	t.Parallel()
	ocr := &fakeOCR{lines: []string{"Jane Doe", "jane@example.com"}}
	pdf := &fakeParser{text: "from pdf"}
	n := usecase.NewTextNormalizer(ocr, &fakeJobs{}, pdf, nil, fastPoll)

	got, err := n.Normalize(context.Background(), usecase.NormalizeRequest{Doc: pdfDoc()})
	require.NoError(t, err)
	assert.Equal(t, usecase.StrategyOCRSync, got.Method)
	assert.Equal(t, "Jane Doe\njane@example.com", got.Text)
	assert.Equal(t, len("Jane Doe\njane@example.com"), got.CharCount)
	assert.Zero(t, pdf.calls)
}

func TestNormalizer_ThresholdFallsThroughToAsyncOCR(t *testing.T) {
	t.Parallel()
	ocr := &fakeOCR{lines: []string{"short"}}
	jobs := &fakeJobs{pending: 2, final: domain.OCRJob{Status: domain.OCRJobSucceeded, Lines: []string{longText}}}
	n := usecase.NewTextNormalizer(ocr, jobs, &fakeParser{}, nil, fastPoll)
	ref := domain.BlobRef{Bucket: "b", Key: "job-descriptions/1_jd.pdf"}

	got, err := n.Normalize(context.Background(), usecase.NormalizeRequest{Doc: pdfDoc(), Blob: ref, MinChars: 80})
	require.NoError(t, err)
	assert.Equal(t, usecase.StrategyOCRAsync, got.Method)
	assert.Equal(t, 3, jobs.polls)
	assert.Equal(t, []domain.BlobRef{ref}, jobs.started)
}

func TestNormalizer_AsyncSkippedWithoutBlob(t *testing.T) {
	t.Parallel()
	jobs := &fakeJobs{final: domain.OCRJob{Status: domain.OCRJobSucceeded, Lines: []string{longText}}}
	n := usecase.NewTextNormalizer(&fakeOCR{}, jobs, &fakeParser{text: "pdf layer text"}, nil, fastPoll)

	got, err := n.Normalize(context.Background(), usecase.NormalizeRequest{Doc: pdfDoc()})
	require.NoError(t, err)
	assert.Equal(t, usecase.StrategyPDFText, got.Method)
	assert.Empty(t, jobs.started)
}

func TestNormalizer_FailedJobFallsToPDFParser(t *testing.T) {
	t.Parallel()
	jobs := &fakeJobs{final: domain.OCRJob{Status: domain.OCRJobFailed, Error: "bad scan"}}
	pdf := &fakeParser{text: "pdf layer text"}
	n := usecase.NewTextNormalizer(&fakeOCR{err: errBoom}, jobs, pdf, nil, fastPoll)

	got, err := n.Normalize(context.Background(), usecase.NormalizeRequest{Doc: pdfDoc(), Blob: domain.BlobRef{Key: "k"}})
	require.NoError(t, err)
	assert.Equal(t, usecase.StrategyPDFText, got.Method)
	assert.Equal(t, 1, jobs.polls)
}

func TestNormalizer_PollIsBounded(t *testing.T) {
	t.Parallel()
	jobs := &fakeJobs{pending: 1000}
	n := usecase.NewTextNormalizer(&fakeOCR{}, jobs, nil, nil, fastPoll)

	_, err := n.Normalize(context.Background(), usecase.NormalizeRequest{Doc: pdfDoc(), Blob: domain.BlobRef{Key: "k"}})
	require.ErrorIs(t, err, domain.ErrNoText)
	assert.Equal(t, fastPoll.MaxAttempts, jobs.polls)
}

func TestNormalizer_FormatSpecificBranches(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		doc        domain.RawDocument
		ocr        *fakeOCR
		docx       *fakeParser
		wantMethod string
		wantText   string
		wantOCR    int
	}{
		{
			name:       "docx parser",
			doc:        domain.RawDocument{Content: []byte("PK"), Filename: "cv.docx"},
			ocr:        &fakeOCR{err: errBoom},
			docx:       &fakeParser{text: "docx body"},
			wantMethod: usecase.StrategyDOCXText,
			wantText:   "docx body",
			wantOCR:    1,
		},
		{
			name:       "image retries ocr once",
			doc:        domain.RawDocument{Content: []byte{0x89, 'P', 'N', 'G'}, MediaType: "image/png"},
			ocr:        &fakeOCR{lines: []string{"tiny"}},
			docx:       &fakeParser{},
			wantMethod: usecase.StrategyOCRRetry,
			wantText:   "tiny",
			wantOCR:    2,
		},
		{
			name:       "plain text decoded",
			doc:        domain.RawDocument{Content: []byte("Jane Doe\x00\njane@example.com"), MediaType: "text/plain"},
			ocr:        &fakeOCR{},
			docx:       &fakeParser{},
			wantMethod: usecase.StrategyPlain,
			wantText:   "Jane Doe\njane@example.com",
			wantOCR:    1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := usecase.NewTextNormalizer(tt.ocr, nil, nil, tt.docx, fastPoll)
			got, err := n.Normalize(context.Background(), usecase.NormalizeRequest{Doc: tt.doc, MinChars: 10})
			require.NoError(t, err)
			assert.Equal(t, tt.wantMethod, got.Method)
			assert.Equal(t, tt.wantText, got.Text)
			assert.Equal(t, tt.wantOCR, tt.ocr.calls)
		})
	}
}

func TestNormalizer_LegacyDocSkipsDocxParser(t *testing.T) {
	t.Parallel()
	doc := domain.RawDocument{Content: []byte{0xD0, 0xCF, 0x11, 0xE0}, MediaType: "application/msword", Filename: "cv.doc"}

	docx := &fakeParser{text: "never read"}
	n := usecase.NewTextNormalizer(&fakeOCR{err: errBoom}, nil, nil, docx, fastPoll)
	_, err := n.Normalize(context.Background(), usecase.NormalizeRequest{Doc: doc})
	require.ErrorIs(t, err, domain.ErrNoText)
	assert.Zero(t, docx.calls)

	n = usecase.NewTextNormalizer(&fakeOCR{lines: []string{"Jane Doe"}}, nil, nil, docx, fastPoll)
	got, err := n.Normalize(context.Background(), usecase.NormalizeRequest{Doc: doc})
	require.NoError(t, err)
	assert.Equal(t, usecase.StrategyOCRSync, got.Method)
	assert.Zero(t, docx.calls)
}

func TestNormalizer_NothingWorks(t *testing.T) {
	t.Parallel()
	n := usecase.NewTextNormalizer(&fakeOCR{err: errBoom}, nil, &fakeParser{err: errBoom}, nil, fastPoll)
	_, err := n.Normalize(context.Background(), usecase.NormalizeRequest{Doc: pdfDoc()})
	require.ErrorIs(t, err, domain.ErrNoText)
}

func TestNormalizer_CancelledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n := usecase.NewTextNormalizer(&fakeOCR{lines: []string{"x"}}, nil, nil, nil, fastPoll)
	_, err := n.Normalize(ctx, usecase.NormalizeRequest{Doc: pdfDoc()})
	require.ErrorIs(t, err, context.Canceled)
}

func TestNormalizer_Steps(t *testing.T) {
	t.Parallel()
	n := usecase.TextNormalizer{}
	assert.Equal(t, []string{
		usecase.StrategyOCRSync, usecase.StrategyOCRAsync, usecase.StrategyPDFText,
		usecase.StrategyDOCXText, usecase.StrategyOCRRetry, usecase.StrategyPlain,
	}, n.Steps())
}
