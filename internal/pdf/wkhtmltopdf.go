package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
)

// DefaultWkhtmltopdfPaths are the install locations probed before falling back
// to the library's own lookup.
var DefaultWkhtmltopdfPaths = []string{
	"/usr/bin/wkhtmltopdf",
	"/usr/local/bin/wkhtmltopdf",
	"C:/Program Files/wkhtmltopdf/bin/wkhtmltopdf.exe",
	"C:/wkhtmltopdf/bin/wkhtmltopdf.exe",
}

// The library keeps the binary path in package state.
var wkhtmltopdfPathMu sync.Mutex

// WkhtmltopdfBackend shells out to the wkhtmltopdf binary.
type WkhtmltopdfBackend struct {
	explicit string
	search   []string
	exists   func(string) bool
}

// NewWkhtmltopdfBackend creates the backend. explicit, when set, takes priority
// over the search list.
func NewWkhtmltopdfBackend(explicit string, search []string) *WkhtmltopdfBackend {
	if search == nil {
		search = DefaultWkhtmltopdfPaths
	}
	return &WkhtmltopdfBackend{
		explicit: explicit,
		search:   search,
		exists:   fileExists,
	}
}

// Name implements Backend.
func (b *WkhtmltopdfBackend) Name() string { return "wkhtmltopdf" }

// ResolvePath returns the configured binary, the first existing well-known
// path, or "" to use the library's default lookup.
func (b *WkhtmltopdfBackend) ResolvePath() string {
	if b.explicit != "" {
		return b.explicit
	}
	for _, p := range b.search {
		if b.exists(p) {
			return p
		}
	}
	return ""
}

// Render implements Backend.
func (b *WkhtmltopdfBackend) Render(ctx context.Context, doc Document, workDir string) ([]byte, error) {
	input := filepath.Join(workDir, "report.html")
	if err := os.WriteFile(input, doc.HTML, 0o600); err != nil {
		return nil, fmt.Errorf("pdf: write wkhtmltopdf input: %w", err)
	}
	defer os.Remove(input)

	pdfg, err := b.newGenerator()
	if err != nil {
		return nil, fmt.Errorf("%w: wkhtmltopdf: %v", ErrBackendUnavailable, err)
	}
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA4)
	pdfg.MarginTop.Set(13)
	pdfg.MarginRight.Set(13)
	pdfg.MarginBottom.Set(13)
	pdfg.MarginLeft.Set(13)
	pdfg.NoOutline.Set(true)
	pdfg.Quiet.Set(true)

	page := wkhtmltopdf.NewPage(input)
	page.Encoding.Set("UTF-8")
	page.EnableLocalFileAccess.Set(true)
	pdfg.AddPage(page)

	if err := pdfg.CreateContext(ctx); err != nil {
		return nil, fmt.Errorf("pdf: wkhtmltopdf create: %w", err)
	}
	return pdfg.Bytes(), nil
}

func (b *WkhtmltopdfBackend) newGenerator() (*wkhtmltopdf.PDFGenerator, error) {
	wkhtmltopdfPathMu.Lock()
	defer wkhtmltopdfPathMu.Unlock()
	if path := b.ResolvePath(); path != "" {
		wkhtmltopdf.SetPath(path)
	}
	return wkhtmltopdf.NewPDFGenerator()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
