// Package staging holds freshly rendered documents until they are converted
// and promoted to the results directory.
package staging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"resume-tailor/internal/pdfconv"
	"resume-tailor/internal/shared/telemetry"
	"resume-tailor/internal/shared/util"
)

// Document is anything that can write itself to a path.
type Document interface {
	Save(path string) error
}

// ConvertError reports a staged file the converter could not handle.
type ConvertError struct {
	File string
	Err  error
}

func (e *ConvertError) Error() string {
	return fmt.Sprintf("convert %s: %v", e.File, e.Err)
}

func (e *ConvertError) Unwrap() error { return e.Err }

// Area is a scratch directory paired with a results directory.
type Area struct {
	dir        string
	resultsDir string
	converter  pdfconv.Converter
}

// New builds an Area. A nil converter skips PDF conversion.
func New(stagingDir, resultsDir string, converter pdfconv.Converter) *Area {
	if converter == nil {
		converter = pdfconv.Noop{}
	}
	return &Area{dir: stagingDir, resultsDir: resultsDir, converter: converter}
}

// Dir returns the staging directory.
func (a *Area) Dir() string { return a.dir }

// ResultsDir returns the results directory.
func (a *Area) ResultsDir() string { return a.resultsDir }

// Clear deletes every regular file directly inside the staging directory.
// Failures are logged and the rest are still removed. A missing directory
// is not an error.
func (a *Area) Clear() error {
	items, err := os.ReadDir(a.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, item := range items {
		if !item.Type().IsRegular() {
			continue
		}
		if err := os.Remove(filepath.Join(a.dir, item.Name())); err != nil {
			telemetry.Warn("staging.remove_failed", map[string]any{"file": item.Name(), "err": err})
		}
	}
	return nil
}

// Stage saves doc as <name>.docx in the staging directory and returns the
// path written.
func (a *Area) Stage(doc Document, name string) (string, error) {
	clean, err := util.SanitizeFileName(name)
	if err != nil {
		return "", fmt.Errorf("stage %q: %w", name, err)
	}
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}
	path := filepath.Join(a.dir, clean+".docx")
	if err := doc.Save(path); err != nil {
		return "", err
	}
	return path, nil
}

// Promote copies every regular file from staging into the results directory,
// overwriting same-named files. It returns the names copied; per-file
// failures are logged and joined into the error.
func (a *Area) Promote() ([]string, error) {
	for _, dir := range []string{a.dir, a.resultsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir: %w", err)
		}
	}
	items, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, err
	}
	var (
		promoted []string
		errs     []error
	)
	for _, item := range items {
		if !item.Type().IsRegular() {
			continue
		}
		name := item.Name()
		if err := copyFile(filepath.Join(a.dir, name), filepath.Join(a.resultsDir, name)); err != nil {
			telemetry.Warn("staging.copy_failed", map[string]any{"file": name, "err": err})
			errs = append(errs, fmt.Errorf("copy %s: %w", name, err))
			continue
		}
		promoted = append(promoted, name)
	}
	return promoted, errors.Join(errs...)
}

// ConvertStagedToPdf converts every staged .docx to a sibling .pdf. A
// failing file does not stop the others; failures come back joined as
// *ConvertError values.
func (a *Area) ConvertStagedToPdf(ctx context.Context) ([]string, error) {
	items, err := os.ReadDir(a.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, item := range items {
		if item.Type().IsRegular() && strings.EqualFold(filepath.Ext(item.Name()), ".docx") {
			names = append(names, item.Name())
		}
	}
	sort.Strings(names)

	var (
		converted []string
		errs      []error
	)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		src := filepath.Join(a.dir, name)
		dst := filepath.Join(a.dir, strings.TrimSuffix(name, filepath.Ext(name))+".pdf")
		if err := a.converter.Convert(ctx, src, dst); err != nil {
			errs = append(errs, &ConvertError{File: name, Err: err})
			continue
		}
		if _, err := os.Stat(dst); err == nil {
			converted = append(converted, filepath.Base(dst))
		}
	}
	return converted, errors.Join(errs...)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
