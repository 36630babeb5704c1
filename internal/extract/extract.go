package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"resume-tailor/resume/render"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	lockFilePrefix = "~$"
	separatorWidth = 50
)

// BaseResumes lists the résumé files in dir by name. Word lock files are
// skipped. The directory is created when missing.
func BaseResumes(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	items, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, item := range items {
		name := item.Name()
		if !item.Type().IsRegular() || strings.HasPrefix(name, lockFilePrefix) {
			continue
		}
		switch strings.ToLower(filepath.Ext(name)) {
		case ".docx", ".pdf":
			out = append(out, filepath.Join(dir, name))
		}
	}
	sort.Strings(out)
	return out, nil
}

// BaseResumeText joins the text of every base résumé, each preceded by a
// dashed banner naming the file.
func BaseResumeText(ctx context.Context, dir string) (string, error) {
	files, err := BaseResumes(dir)
	if err != nil {
		return "", err
	}
	rule := strings.Repeat("-", separatorWidth)
	var b strings.Builder
	for _, path := range files {
		text, err := ExtractFile(ctx, path)
		if err != nil {
			return "", fmt.Errorf("base resume %s: %w", filepath.Base(path), err)
		}
		fmt.Fprintf(&b, "\n%s\n%s\n %s\n", rule, filepath.Base(path), rule)
		b.WriteString(text)
	}
	return b.String(), nil
}

// ExtractFile reads a .docx or .pdf file from disk and returns its text.
func ExtractFile(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", err
	}
	return ExtractTextFromBytes(ctx, data, "", filepath.Base(path))
}

// ExtractTextFromBytes extracts text from an in-memory payload. An empty or
// generic mime type is sniffed from the content and file name.
func ExtractTextFromBytes(ctx context.Context, data []byte, mimeType string, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	normalized := normalizeMimeType(mimeType, fileName, data)
	switch normalized {
	case mimePDF:
		return extractPDF(data)
	case mimeDOCX:
		return extractDOCX(data)
	default:
		return "", fmt.Errorf("unsupported mime type: %s", normalized)
	}
}

func extractPDF(data []byte) (string, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}
	paragraphs, err := render.TextFromBytes(data)
	if err != nil {
		return "", err
	}
	return strings.Join(paragraphs, "\n"), nil
}

func normalizeMimeType(mimeType string, fileName string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	if clean == "" || clean == "application/octet-stream" {
		clean = strings.ToLower(strings.Split(http.DetectContentType(data), ";")[0])
	}
	if clean != "application/zip" {
		return clean
	}

	if mapped := mapOOXMLFromZip(data); mapped != "" {
		return mapped
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".docx":
		return mimeDOCX
	default:
		return clean
	}
}

func mapOOXMLFromZip(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}
	for _, f := range zr.File {
		name := strings.ReplaceAll(f.Name, "\\", "/")
		switch name {
		case "word/document.xml":
			return mimeDOCX
		case "xl/workbook.xml":
			return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		case "ppt/presentation.xml":
			return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
		}
	}
	return ""
}
