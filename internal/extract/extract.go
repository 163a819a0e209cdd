// Package extract produces best-effort plain text from uploaded files.
//
// Extraction never returns an error: unsupported types, corrupt files, and
// decode failures all degrade into descriptive placeholder strings, so the
// enrichment pipeline always has something to persist.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fumiama/go-docx"
	"github.com/ledongthuc/pdf"
)

// Sentinel strings returned instead of extracted text.
const (
	NoTextInPDF     = "No text found in PDF."
	UnsupportedType = "Unsupported file type."
)

// FromFile extracts plain text from the file at path based on its extension.
// The declared MIME type is advisory only; the extension decides the format.
func FromFile(path, mimeType string) string {
	_ = mimeType

	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return extractionFailure(err)
		}
		return string(data)
	case ".pdf":
		return fromPDF(path)
	case ".docx":
		return fromDOCX(path)
	default:
		return UnsupportedType
	}
}

// fromPDF joins the text of non-blank pages with a blank line and cleans the
// result. PDF readers panic on some malformed inputs, so recover here too.
func fromPDF(path string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = extractionFailure(fmt.Errorf("%v", r))
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return extractionFailure(err)
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) != "" {
			pages = append(pages, text)
		}
	}

	cleaned := Cleanup(strings.Join(pages, "\n\n"))
	if cleaned == "" {
		return NoTextInPDF
	}
	return cleaned
}

// fromDOCX joins paragraph text with newlines.
func fromDOCX(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return extractionFailure(err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return extractionFailure(err)
	}
	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return extractionFailure(err)
	}

	var lines []string
	for _, item := range doc.Document.Body.Items {
		if p, ok := item.(*docx.Paragraph); ok {
			lines = append(lines, p.String())
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func extractionFailure(err error) string {
	return fmt.Sprintf("Unable to extract text: %v", err)
}
