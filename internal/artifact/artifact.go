// Package artifact captures the rendered page as a screenshot and a PDF.
package artifact

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nao1215/fpprobe/internal/config"
	"github.com/nao1215/fpprobe/internal/model"
)

// Page is the part of a browser session the capturer needs.
type Page interface {
	FullScreenshot(ctx context.Context) ([]byte, error)
	PrintPDF(ctx context.Context, paper config.PaperSize) ([]byte, error)
}

// ScreenshotName returns the file name of the screenshot of iteration i.
func ScreenshotName(i int) string {
	return fmt.Sprintf("screenshot_%d.png", i)
}

// DocumentName returns the file name of the PDF export of iteration i.
func DocumentName(i int) string {
	return fmt.Sprintf("webpage_%d.pdf", i)
}

// Capturer writes the screenshot and PDF of an iteration.
type Capturer struct {
	dir    string
	paper  config.PaperSize
	logger *slog.Logger
}

// Option configures a Capturer.
type Option func(*Capturer)

// WithLogger sets the logger for capture events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Capturer) {
		c.logger = logger
	}
}

// NewCapturer creates a Capturer writing into dir.
func NewCapturer(dir string, paper config.PaperSize, opts ...Option) *Capturer {
	c := &Capturer{dir: dir, paper: paper}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Capture writes screenshot_<i>.png and then webpage_<i>.pdf. Existing
// files are truncated. If the PDF fails, the screenshot stays on disk.
func (c *Capturer) Capture(ctx context.Context, page Page, i int) (model.Artifacts, error) {
	var arts model.Artifacts

	png, err := page.FullScreenshot(ctx)
	if err != nil {
		return arts, fmt.Errorf("failed to take screenshot: %w", err)
	}
	shot := filepath.Join(c.dir, ScreenshotName(i))
	if err := writeFile(shot, png); err != nil {
		return arts, err
	}
	arts.ScreenshotPath = shot
	c.logger.Info(fmt.Sprintf("Screenshot for iteration %d saved.", i), "path", shot)

	pdf, err := page.PrintPDF(ctx, c.paper)
	if err != nil {
		return arts, fmt.Errorf("failed to print PDF: %w", err)
	}
	doc := filepath.Join(c.dir, DocumentName(i))
	if err := writeFile(doc, pdf); err != nil {
		return arts, err
	}
	arts.DocumentPath = doc
	c.logger.Info(fmt.Sprintf("PDF for iteration %d created.", i), "path", doc)

	return arts, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
