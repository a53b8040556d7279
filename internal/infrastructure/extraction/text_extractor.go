// Package extraction turns uploaded contract documents into structured data.
// Text is pulled out of the document locally, the field extraction runs
// against an OpenAI-compatible completion API.
package extraction

import (
	"context"
	"fmt"
	"strings"

	"github.com/econtract/backend/internal/domain/shared"
	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// MIME types accepted by the text extractor.
const (
	MimePDF  = "application/pdf"
	MimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// FitzTextExtractor extracts plain text from uploaded documents. PDF and
// Word documents go through MuPDF, text files pass through unchanged.
type FitzTextExtractor struct {
	logger *zap.Logger
}

// NewFitzTextExtractor creates a text extractor
func NewFitzTextExtractor(logger *zap.Logger) *FitzTextExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FitzTextExtractor{logger: logger}
}

// ExtractText returns the plain text of the document. Unknown MIME types
// fail with an unsupported format error so the queue item records a clear
// reason.
func (e *FitzTextExtractor) ExtractText(ctx context.Context, data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", shared.NewDomainError(shared.CodeValidation, "Document is empty")
	}

	normalized := normalizeMime(mimeType)
	switch {
	case strings.HasPrefix(normalized, "text/"):
		return string(data), nil
	case normalized == MimePDF, normalized == MimeDocx:
		return e.extractDocument(ctx, data)
	default:
		return "", shared.NewDomainErrorf(shared.CodeUnsupportedFormat,
			"Unsupported document format %q", mimeType)
	}
}

func (e *FitzTextExtractor) extractDocument(ctx context.Context, data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", shared.NewDomainErrorf(shared.CodeUnsupportedFormat,
			"Failed to open document: %v", err)
	}
	defer doc.Close()

	var sb strings.Builder
	pages := doc.NumPage()
	for page := 0; page < pages; page++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := doc.Text(page)
		if err != nil {
			// A single unreadable page should not sink the whole document
			e.logger.Warn("failed to extract page text",
				zap.Int("page", page),
				zap.Error(err))
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	result := strings.TrimSpace(sb.String())
	if result == "" {
		return "", fmt.Errorf("document yielded no text across %d pages", pages)
	}

	e.logger.Debug("extracted document text",
		zap.Int("pages", pages),
		zap.Int("text_length", len(result)))
	return result, nil
}

// normalizeMime strips parameters like "; charset=utf-8"
func normalizeMime(mimeType string) string {
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = mimeType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
