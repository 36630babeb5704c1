package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// paragraphRuns returns the w:r elements directly under p.
func paragraphRuns(p *xmlNode) []*xmlNode {
	var runs []*xmlNode
	for _, child := range p.Children {
		if isElement(child, "r") {
			runs = append(runs, child)
		}
	}
	return runs
}

// isRunText reports whether a run child carries text: w:t, w:tab, w:cr and
// text-wrapping w:br.
func isRunText(node *xmlNode) bool {
	switch {
	case isElement(node, "t"), isElement(node, "tab"), isElement(node, "cr"):
		return true
	case isElement(node, "br"):
		for _, attr := range node.Attr {
			if attr.Name.Local == "type" && attr.Value != "textWrapping" {
				return false
			}
		}
		return true
	}
	return false
}

func runText(run *xmlNode) string {
	var builder strings.Builder
	for _, child := range run.Children {
		if !isRunText(child) {
			continue
		}
		switch {
		case isElement(child, "t"):
			builder.WriteString(elementText(child))
		case isElement(child, "tab"):
			builder.WriteByte('\t')
		default:
			builder.WriteByte('\n')
		}
	}
	return builder.String()
}

func elementText(node *xmlNode) string {
	var builder strings.Builder
	for _, child := range node.Children {
		if child.IsText {
			builder.WriteString(child.Text)
		}
	}
	return builder.String()
}

// setRunText removes the run's text children and writes text where the first
// of them was. Run properties and non-text content stay in place.
func setRunText(run *xmlNode, text string) {
	kept := make([]*xmlNode, 0, len(run.Children))
	insertAt := -1
	for _, child := range run.Children {
		if isRunText(child) {
			if insertAt == -1 {
				insertAt = len(kept)
			}
			continue
		}
		kept = append(kept, child)
	}
	if insertAt == -1 {
		insertAt = len(kept)
	}

	textNodes := textToRunContent(text)
	children := make([]*xmlNode, 0, len(kept)+len(textNodes))
	children = append(children, kept[:insertAt]...)
	children = append(children, textNodes...)
	children = append(children, kept[insertAt:]...)
	run.Children = children
}

// textToRunContent encodes text as w:t segments, with "\n" as w:br and "\t"
// as w:tab.
func textToRunContent(text string) []*xmlNode {
	var out []*xmlNode
	var segment strings.Builder
	flush := func() {
		if segment.Len() == 0 {
			return
		}
		out = append(out, &xmlNode{
			Name:     wml("t"),
			Attr:     []xml.Attr{{Name: xml.Name{Space: xmlNamespace, Local: "space"}, Value: "preserve"}},
			Children: []*xmlNode{{IsText: true, Text: segment.String()}},
		})
		segment.Reset()
	}
	for _, r := range text {
		switch r {
		case '\n':
			flush()
			out = append(out, &xmlNode{Name: wml("br")})
		case '\t':
			flush()
			out = append(out, &xmlNode{Name: wml("tab")})
		case '\r':
		default:
			segment.WriteRune(r)
		}
	}
	flush()
	return out
}

// paragraphText is the visible text of p including runs nested in
// hyperlinks and fields.
func paragraphText(p *xmlNode) string {
	var builder strings.Builder
	var visit func(*xmlNode)
	visit = func(n *xmlNode) {
		for _, child := range n.Children {
			switch {
			case isElement(child, "p"):
			case isElement(child, "r"):
				builder.WriteString(runText(child))
			default:
				visit(child)
			}
		}
	}
	visit(p)
	return builder.String()
}

func partParagraphs(content []byte, skipBlank bool) ([]string, error) {
	part, err := parsePart(content)
	if err != nil {
		return nil, err
	}
	var out []string
	walk(part.root, func(n *xmlNode) {
		if !isElement(n, "p") {
			return
		}
		text := paragraphText(n)
		if skipBlank && strings.TrimSpace(text) == "" {
			return
		}
		out = append(out, text)
	})
	return out, nil
}

// packageTexts returns body paragraphs and non-blank header/footer
// paragraphs of a .docx package.
func packageTexts(data []byte) ([]string, []string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, err
	}
	var body []string
	var extra []string
	found := false
	files := append([]*zip.File(nil), reader.File...)
	sort.SliceStable(files, func(i, j int) bool {
		return normalizeZipName(files[i].Name) < normalizeZipName(files[j].Name)
	})
	for _, file := range files {
		name := normalizeZipName(file.Name)
		isBody := name == documentPart
		if !isBody && !headerFooterPart.MatchString(name) {
			continue
		}
		content, err := readZipFile(file)
		if err != nil {
			return nil, nil, err
		}
		texts, err := partParagraphs(content, !isBody)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", name, err)
		}
		if isBody {
			found = true
			body = texts
			continue
		}
		extra = append(extra, texts...)
	}
	if !found {
		return nil, nil, fmt.Errorf("%s not found", documentPart)
	}
	return body, extra, nil
}

// TextFromBytes returns the paragraph text of a .docx package: body
// paragraphs (table cells included) followed by non-blank header and footer
// paragraphs.
func TextFromBytes(data []byte) ([]string, error) {
	body, extra, err := packageTexts(data)
	if err != nil {
		return nil, err
	}
	return append(body, extra...), nil
}

// ParagraphTexts reads a .docx file and returns its paragraph text.
func ParagraphTexts(path string) ([]string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	return TextFromBytes(data)
}
