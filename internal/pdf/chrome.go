package pdf

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// A4 in inches, as expected by Page.printToPDF.
const (
	a4WidthIn    = 8.27
	a4HeightIn   = 11.69
	pageMarginIn = 0.5
)

// chromeExecNames are looked up on PATH when no explicit binary is set.
var chromeExecNames = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"chrome",
	"headless-shell",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
}

// ChromeBackend prints the HTML document through a headless Chrome instance.
// It gives the best fidelity but needs a Chrome or Chromium install.
type ChromeBackend struct {
	execPath string
	skipOS   map[string]struct{}
	goos     string
	lookPath func(string) (string, error)
}

// NewChromeBackend creates the backend. execPath may be empty to let chromedp
// locate the browser. The backend refuses to run on any GOOS in skipOS.
func NewChromeBackend(execPath string, skipOS ...string) *ChromeBackend {
	b := &ChromeBackend{
		execPath: execPath,
		skipOS:   map[string]struct{}{},
		goos:     runtime.GOOS,
		lookPath: exec.LookPath,
	}
	for _, goos := range skipOS {
		b.skipOS[goos] = struct{}{}
	}
	return b
}

// Name implements Backend.
func (b *ChromeBackend) Name() string { return "chrome" }

// Render implements Backend.
func (b *ChromeBackend) Render(ctx context.Context, doc Document, _ string) ([]byte, error) {
	if _, skip := b.skipOS[b.goos]; skip {
		return nil, fmt.Errorf("%w: chrome disabled on %s", ErrBackendUnavailable, b.goos)
	}

	execPath, err := b.resolveExec()
	if err != nil {
		return nil, err
	}
	opts := append([]chromedp.ExecAllocatorOption(nil), chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.ExecPath(execPath))
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	html := string(doc.HTML)
	var out []byte
	err = chromedp.Run(taskCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(a4WidthIn).
				WithPaperHeight(a4HeightIn).
				WithMarginTop(pageMarginIn).
				WithMarginBottom(pageMarginIn).
				WithMarginLeft(pageMarginIn).
				WithMarginRight(pageMarginIn).
				Do(ctx)
			if err != nil {
				return err
			}
			out = buf
			return nil
		}),
	)
	if errors.Is(err, exec.ErrNotFound) {
		return nil, fmt.Errorf("%w: chrome: %v", ErrBackendUnavailable, err)
	}
	if err != nil {
		return nil, fmt.Errorf("pdf: chrome print: %w", err)
	}
	return out, nil
}

// resolveExec finds the browser binary, or reports the backend unavailable.
func (b *ChromeBackend) resolveExec() (string, error) {
	candidates := chromeExecNames
	if b.execPath != "" {
		candidates = []string{b.execPath}
	}
	for _, name := range candidates {
		if path, err := b.lookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: no chrome binary found", ErrBackendUnavailable)
}
