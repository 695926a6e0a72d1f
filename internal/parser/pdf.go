package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"fitcoach/internal/models"
)

// ListPDFs returns the names of the files in dir ending in ".pdf", sorted.
// The match is case-sensitive.
func ListPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), models.PDFExtension) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// ReadPages extracts the plain text of every page of the PDF at filePath, in
// page order. Pages without content come back with empty text.
func ReadPages(filePath string) (pages []models.Page, err error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	// ledongthuc/pdf panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("failed to parse %s: %v", filePath, r)
		}
	}()

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, err
	}

	source := filepath.Base(filePath)
	numPages := reader.NumPage()
	pages = make([]models.Page, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, models.Page{Source: source, Number: i})
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, models.Page{Source: source, Number: i, Text: pageText})
	}
	return pages, nil
}
