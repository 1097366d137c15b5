// Package automation drives a headless Chrome through go-rod.
package automation

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// PrintTimeout bounds one print job, browser start included.
var PrintTimeout = 60 * time.Second

// Printer turns an HTML document into a PDF.
type Printer func(ctx context.Context, html []byte) ([]byte, error)

// ChromePrinter returns a Printer launching the browser at bin, or the one
// go-rod finds or downloads when bin is empty.
func ChromePrinter(bin string) Printer {
	return func(ctx context.Context, html []byte) ([]byte, error) {
		return PrintPDF(ctx, bin, html)
	}
}

// PrintPDF loads html in a fresh headless browser and prints it with the
// page size the document's CSS asks for.
func PrintPDF(ctx context.Context, bin string, html []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, PrintTimeout)
	defer cancel()

	// Leakless(false): security software blocks the leakless helper
	l := launcher.New().Context(ctx).Headless(true).Leakless(false)
	if bin != "" {
		l = l.Bin(bin)
	}
	defer l.Cleanup()

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("browser launch failed: %w", err)
	}
	browser := rod.New().Context(ctx).ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("browser connect failed: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("open page failed: %w", err)
	}
	if err := page.SetDocumentContent(string(html)); err != nil {
		return nil, fmt.Errorf("set document failed: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load failed: %w", err)
	}

	stream, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, fmt.Errorf("print to pdf failed: %w", err)
	}
	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("read pdf stream failed: %w", err)
	}
	zap.L().Debug("pdf printed", zap.Int("bytes", len(data)))
	return data, nil
}
