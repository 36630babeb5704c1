// Package pdfconv turns staged .docx files into PDFs.
package pdfconv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"resume-tailor/internal/shared/telemetry"
)

// ErrEmptyPDF is returned when the converter produced a PDF without pages.
var ErrEmptyPDF = errors.New("pdf has no pages")

// Converter writes a PDF rendering of docxPath to pdfPath.
type Converter interface {
	Convert(ctx context.Context, docxPath, pdfPath string) error
}

// Runner executes an external command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Soffice converts with LibreOffice in headless mode.
type Soffice struct {
	Binary  string
	Timeout time.Duration
	Run     Runner
}

// NewSoffice returns a converter calling binary (default "soffice").
func NewSoffice(binary string) *Soffice {
	if strings.TrimSpace(binary) == "" {
		binary = "soffice"
	}
	return &Soffice{Binary: binary, Timeout: 2 * time.Minute, Run: execRunner}
}

// Convert runs soffice into pdfPath's directory, renames the output when
// pdfPath uses a different base name, then checks the PDF opens.
func (s *Soffice) Convert(ctx context.Context, docxPath, pdfPath string) error {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	run := s.Run
	if run == nil {
		run = execRunner
	}

	outDir := filepath.Dir(pdfPath)
	args := []string{"--headless", "--convert-to", "pdf", "--outdir", outDir, docxPath}
	output, err := run(ctx, s.Binary, args...)
	if err != nil {
		telemetry.Error("pdfconv.soffice_failed", map[string]any{
			"file":   filepath.Base(docxPath),
			"err":    err,
			"output": string(output),
		})
		return fmt.Errorf("soffice %s: %w: %s", filepath.Base(docxPath), err, strings.TrimSpace(string(output)))
	}

	produced := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(docxPath), filepath.Ext(docxPath))+".pdf")
	if produced != pdfPath {
		if err := os.Rename(produced, pdfPath); err != nil {
			return fmt.Errorf("move converted pdf: %w", err)
		}
	}

	pages, err := Verify(pdfPath)
	if err != nil {
		return err
	}
	telemetry.Info("pdfconv.converted", map[string]any{"file": filepath.Base(pdfPath), "pages": pages})
	return nil
}

// Verify opens a PDF and returns its page count.
func Verify(path string) (int, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open pdf %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	pages := reader.NumPage()
	if pages < 1 {
		return 0, fmt.Errorf("%s: %w", filepath.Base(path), ErrEmptyPDF)
	}
	return pages, nil
}

// Noop skips conversion. Used where LibreOffice is not installed.
type Noop struct{}

// Convert logs the skipped file and returns nil.
func (Noop) Convert(ctx context.Context, docxPath, pdfPath string) error {
	telemetry.Info("pdfconv.skipped", map[string]any{"file": filepath.Base(docxPath)})
	return ctx.Err()
}

// New picks a converter by name: "none" selects Noop, anything else soffice.
func New(name, sofficePath string) Converter {
	if name == "none" {
		return Noop{}
	}
	return NewSoffice(sofficePath)
}
