package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
)

type docType int

const (
	typeErr docType = iota
	typeCSV
	typePDF
	typeDoc //docx, txt, rtf, odt
)

func getDocType(docPath string) docType {
	ext := strings.ToLower(filepath.Ext(docPath))
	switch ext {
	case ".csv":
		return typeCSV
	case ".pdf":
		return typePDF
	case ".docx", ".txt", ".rtf", ".odt":
		return typeDoc
	default:
		return typeErr
	}
}

// extractText pulls the raw text out of a local file. CSV content is returned
// untouched so the tabular splitter sees the real rows.
func extractText(path string, contentType docType) (string, error) {
	switch contentType {
	case typeCSV:
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read csv: %w", err)
		}
		return string(raw), nil
	case typePDF:
		return extractPDF(path)
	case typeDoc:
		return extractDocxTxtRtf(path)
	default:
		return "", fmt.Errorf("unsupported content type")
	}
}

func extractPDF(path string) (string, error) {
	f, err := pdf.Open(path)
	if err != nil {
		logger.Error("failed opening of pdf file", "path", path)
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var sb strings.Builder
	numPages := f.NumPage()
	logger.Debug("extractPDF", "number of pages", numPages)
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := protectExtract(page)
		if err != nil {
			// log and continue with the other pages
			logger.Error("Error parsing page content", "page", i, "error", err)
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(content)
	}
	return sb.String(), nil
}

func extractDocxTxtRtf(path string) (string, error) {
	text, err := cat.File(path)
	if err != nil {
		logger.Error("Error extracting content from doc", "path", path)
		return "", fmt.Errorf("failed to extract doc: %w", err)
	}
	return text, nil
}

// a malformed pdf page can hang the parser, so extraction runs behind a
// timeout
func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(time.Second * 10):
		logger.Error("pageExtract", "timeout")
		return "", errors.New("timeout")
	}
}
