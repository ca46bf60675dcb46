package capture

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"monthcal/internal/fsutil"
)

// Default capture parameters. A 7-column month grid reads well in landscape.
const (
	DefaultWidth      = 1400
	DefaultHeight     = 1000
	DefaultTimeoutSec = 30
)

// Options defines parameters for a Chromium-based screenshot capture.
type Options struct {
	// URL to capture: an http(s) URL or a file:// URL of a rendered page.
	URL string

	// OutputPath is where the PNG screenshot will be written.
	OutputPath string

	// Width and Height are the viewport dimensions in pixels. If zero,
	// DefaultWidth / DefaultHeight are used.
	Width  int
	Height int

	// Timeout bounds the entire capture operation. If zero, a sane default
	// (DefaultTimeoutSec) is used.
	Timeout time.Duration
}

// FileURL turns a local path into a file:// URL for Options.URL.
func FileURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

// PNGPath derives the screenshot path from a rendered HTML path.
func PNGPath(htmlPath string) string {
	return strings.TrimSuffix(htmlPath, filepath.Ext(htmlPath)) + ".png"
}

func (o *Options) normalize() error {
	if o.URL == "" {
		return errors.New("capture: URL is required")
	}
	if o.OutputPath == "" {
		return errors.New("capture: OutputPath is required")
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = time.Duration(DefaultTimeoutSec) * time.Second
	}
	return nil
}

// CalendarPNG launches a headless Chromium via chromedp, navigates to
// opts.URL, waits until the calendar container reports data-ready="true"
// and writes a full-page PNG screenshot to opts.OutputPath.
func CalendarPNG(parentCtx context.Context, opts Options) error {
	if err := opts.normalize(); err != nil {
		return err
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(`[data-ready="true"]`, chromedp.ByQuery),
		chromedp.FullScreenshot(&png, 100),
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if err := fsutil.WriteFileAtomic(opts.OutputPath, png, fsutil.PublicFile, fsutil.PublicDir); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}

	return nil
}
