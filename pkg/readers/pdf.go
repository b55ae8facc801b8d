package readers

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/tably/tably/internal/logger"
)

// pageBreak separates per-page text in the combined payload.
const pageBreak = "\n\n--- Page Break ---\n\n"

// PDF extracts plain text from a PDF, one section per page joined by a page
// break marker so the model can tell pages apart.
func PDF(path string) (string, error) {
	if _, err := statFile(path); err != nil {
		return "", err
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	total := r.NumPage()
	logger.Debug("pdf read starting", "path", path, "pages", total)

	var pages []string
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read page %d: %w", i, err)
		}
		pages = append(pages, strings.TrimSpace(text))
	}

	content := strings.Join(pages, pageBreak)
	logger.Debug("pdf read complete", "path", path, "text_size", len(content))
	return content, nil
}
