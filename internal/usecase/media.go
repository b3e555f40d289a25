package usecase

import (
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/AbilashEG/smart-hr-intake/internal/domain"
)

// ClassifyMedia picks the document family from the declared type, then the
// file extension, then by sniffing the content.
func ClassifyMedia(mediaType, filename string, data []byte) domain.MediaKind {
	if k := kindFromMIME(mediaType); k != domain.MediaOther {
		return k
	}
	if k := kindFromExt(filename); k != domain.MediaOther {
		return k
	}
	if len(data) > 0 {
		return kindFromMIME(mimetype.Detect(data).String())
	}
	return domain.MediaOther
}

// ContentTypeFor returns a concrete MIME type for storage, sniffing when the
// declared one is missing or generic.
func ContentTypeFor(mediaType string, data []byte) string {
	mt := strings.TrimSpace(mediaType)
	if mt != "" && !strings.HasPrefix(mt, "application/octet-stream") {
		return mt
	}
	return mimetype.Detect(data).String()
}

func kindFromMIME(mt string) domain.MediaKind {
	mt, _, _ = strings.Cut(strings.ToLower(strings.TrimSpace(mt)), ";")
	mt = strings.TrimSpace(mt)
	switch {
	case mt == "application/pdf":
		return domain.MediaPDF
	case mt == "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return domain.MediaDOCX
	case mt == "application/msword", mt == "application/x-ole-storage":
		return domain.MediaDOC
	case strings.HasPrefix(mt, "image/"):
		return domain.MediaImage
	case strings.HasPrefix(mt, "text/"):
		return domain.MediaText
	default:
		return domain.MediaOther
	}
}

func kindFromExt(filename string) domain.MediaKind {
	switch strings.ToLower(path.Ext(filename)) {
	case ".pdf":
		return domain.MediaPDF
	case ".docx":
		return domain.MediaDOCX
	case ".doc":
		return domain.MediaDOC
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp", ".gif", ".webp":
		return domain.MediaImage
	case ".txt", ".md", ".text":
		return domain.MediaText
	default:
		return domain.MediaOther
	}
}
