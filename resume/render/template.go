package render

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"resume-tailor/resume/model"
	"resume-tailor/resume/placeholder"
)

const documentPart = "word/document.xml"

var headerFooterPart = regexp.MustCompile(`^word/(header|footer)[0-9]*\.xml$`)

// Template is an immutable .docx stencil. Every Fill works on a fresh copy
// of the package.
type Template struct {
	path string
	data []byte
}

// LoadTemplate reads a .docx template from disk.
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("load template %s: %w", path, err)
	}
	return NewTemplate(path, data)
}

// NewTemplate wraps template bytes already in memory.
func NewTemplate(name string, data []byte) (*Template, error) {
	if _, err := zip.NewReader(bytes.NewReader(data), int64(len(data))); err != nil {
		return nil, fmt.Errorf("template %s is not a docx package: %w", name, err)
	}
	return &Template{path: name, data: append([]byte(nil), data...)}, nil
}

// Path returns the template's source path.
func (t *Template) Path() string {
	return t.path
}

type fillOptions struct {
	skipUnchanged bool
}

// FillOption tunes Fill.
type FillOption func(*fillOptions)

// SkipUnchanged leaves paragraphs without any substitution untouched, so
// their formatting runs survive. By default every visited paragraph is
// collapsed onto its first run.
func SkipUnchanged() FillOption {
	return func(o *fillOptions) { o.skipUnchanged = true }
}

// FillFile loads the template at path and fills it with a flat record using
// the "{Key}" placeholder convention.
func FillFile(path string, flat model.Fields, opts ...FillOption) (*Document, error) {
	tpl, err := LoadTemplate(path)
	if err != nil {
		return nil, err
	}
	return tpl.Fill(placeholder.Table(placeholder.MapKeys(flat, placeholder.Braces)), opts...)
}

// Fill replaces placeholders in body paragraphs, table cells and non-blank
// header/footer paragraphs. Keys of table are matched literally.
func (t *Template) Fill(table map[string]string, opts ...FillOption) (*Document, error) {
	var options fillOptions
	for _, opt := range opts {
		opt(&options)
	}
	replacer := newReplacer(table)

	reader, err := zip.NewReader(bytes.NewReader(t.data), int64(len(t.data)))
	if err != nil {
		return nil, err
	}

	var output bytes.Buffer
	writer := zip.NewWriter(&output)
	for _, file := range reader.File {
		content, err := readZipFile(file)
		if err != nil {
			return nil, err
		}
		name := normalizeZipName(file.Name)
		switch {
		case name == documentPart:
			content, err = fillPart(content, replacer, false, options)
		case headerFooterPart.MatchString(name):
			content, err = fillPart(content, replacer, true, options)
		}
		if err != nil {
			return nil, fmt.Errorf("fill %s: %w", name, err)
		}
		if err := writeZipFile(writer, file, content); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return &Document{data: output.Bytes()}, nil
}

// newReplacer builds a single-pass replacer. Longer placeholders are listed
// first so they win over shorter ones starting at the same position, and
// inserted values are never rescanned.
func newReplacer(table map[string]string) *strings.Replacer {
	keys := make([]string, 0, len(table))
	for key := range table {
		if key != "" {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	pairs := make([]string, 0, len(keys)*2)
	for _, key := range keys {
		pairs = append(pairs, key, table[key])
	}
	return strings.NewReplacer(pairs...)
}

func fillPart(content []byte, replacer *strings.Replacer, skipBlank bool, options fillOptions) ([]byte, error) {
	part, err := parsePart(content)
	if err != nil {
		return nil, err
	}
	walk(part.root, func(n *xmlNode) {
		if !isElement(n, "p") {
			return
		}
		if skipBlank && strings.TrimSpace(paragraphText(n)) == "" {
			return
		}
		fillParagraph(n, replacer, options)
	})
	return part.bytes()
}

// fillParagraph joins the text of the paragraph's runs, applies the
// replacer, then writes the whole result into the first run and clears the
// rest. Character formatting of later runs is lost.
func fillParagraph(p *xmlNode, replacer *strings.Replacer, options fillOptions) {
	runs := paragraphRuns(p)
	if len(runs) == 0 {
		return
	}
	var builder strings.Builder
	for _, run := range runs {
		builder.WriteString(runText(run))
	}
	combined := builder.String()
	updated := replacer.Replace(combined)
	if options.skipUnchanged && updated == combined {
		return
	}

	for i, run := range runs {
		if i == 0 {
			setRunText(run, updated)
			continue
		}
		setRunText(run, "")
	}
}

// Document is a rendered .docx package.
type Document struct {
	data []byte
}

// Bytes returns the .docx package.
func (d *Document) Bytes() []byte {
	return d.data
}

// Save writes the package to path, overwriting any existing file.
func (d *Document) Save(path string) error {
	if err := os.WriteFile(path, d.data, 0o644); err != nil {
		return fmt.Errorf("save document %s: %w", path, err)
	}
	return nil
}

// Paragraphs returns the visible text of every paragraph in the body.
func (d *Document) Paragraphs() ([]string, error) {
	texts, _, err := packageTexts(d.data)
	return texts, err
}

var tokenPattern = regexp.MustCompile(`\{[^{}\n]+\}`)

// Placeholders lists brace tokens still present after filling, in order of
// first appearance.
func (d *Document) Placeholders() ([]string, error) {
	body, extra, err := packageTexts(d.data)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var out []string
	for _, text := range append(body, extra...) {
		for _, token := range tokenPattern.FindAllString(text, -1) {
			if _, ok := seen[token]; ok {
				continue
			}
			seen[token] = struct{}{}
			out = append(out, token)
		}
	}
	return out, nil
}

func readZipFile(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func writeZipFile(writer *zip.Writer, source *zip.File, content []byte) error {
	header := source.FileHeader
	header.Name = normalizeZipName(source.Name)
	dst, err := writer.CreateHeader(&header)
	if err != nil {
		return err
	}
	_, err = dst.Write(content)
	return err
}

func normalizeZipName(name string) string {
	return strings.ReplaceAll(name, "\\", "/")
}
