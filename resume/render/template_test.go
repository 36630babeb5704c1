package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-tailor/internal/shared/docxtest"
	"resume-tailor/resume/model"
	"resume-tailor/resume/placeholder"
)

func newTestTemplate(t *testing.T, spec docxtest.Spec) *Template {
	t.Helper()
	data, err := docxtest.Build(spec)
	require.NoError(t, err)
	tpl, err := NewTemplate("test.docx", data)
	require.NoError(t, err)
	return tpl
}

func partRoot(t *testing.T, doc *Document, name string) *xmlNode {
	t.Helper()
	content, err := docxtest.Part(doc.Bytes(), name)
	require.NoError(t, err)
	part, err := parsePart([]byte(content))
	require.NoError(t, err)
	return part.root
}

func paragraphsOf(root *xmlNode) []*xmlNode {
	var out []*xmlNode
	walk(root, func(n *xmlNode) {
		if isElement(n, "p") {
			out = append(out, n)
		}
	})
	return out
}

func hasChild(node *xmlNode, local string) bool {
	for _, child := range node.Children {
		if isElement(child, local) {
			return true
		}
	}
	return false
}

func TestFillReplacesPlaceholderVerbatim(t *testing.T) {
	tpl := newTestTemplate(t, docxtest.Spec{
		Body: docxtest.P(docxtest.R("Name: {Name}")) + docxtest.P(docxtest.R("Other text")),
	})

	doc, err := tpl.Fill(map[string]string{"{Name}": "Ava"})
	require.NoError(t, err)

	got, err := doc.Paragraphs()
	require.NoError(t, err)
	assert.Equal(t, []string{"Name: Ava", "Other text"}, got)
}

func TestFillCollapsesRunsOntoFirstRun(t *testing.T) {
	tpl := newTestTemplate(t, docxtest.Spec{
		Body: docxtest.P(docxtest.R("Hello "), docxtest.BoldR("{Name}"), docxtest.R("!")),
	})

	doc, err := tpl.Fill(map[string]string{"{Name}": "Ava"})
	require.NoError(t, err)

	paragraphs := paragraphsOf(partRoot(t, doc, documentPart))
	require.Len(t, paragraphs, 1)
	runs := paragraphRuns(paragraphs[0])
	require.Len(t, runs, 3)

	assert.Equal(t, "Hello Ava!", runText(runs[0]))
	assert.False(t, hasChild(runs[0], "rPr"), "first run keeps its own formatting")
	assert.Equal(t, "", runText(runs[1]))
	assert.Equal(t, "", runText(runs[2]))
	assert.Equal(t, "Hello Ava!", paragraphText(paragraphs[0]))
}

func TestFillCarriesFirstRunFormatting(t *testing.T) {
	tpl := newTestTemplate(t, docxtest.Spec{
		Body: docxtest.P(docxtest.BoldR("{Name}"), docxtest.R(" plain")),
	})

	doc, err := tpl.Fill(map[string]string{"{Name}": "Ava"})
	require.NoError(t, err)

	runs := paragraphRuns(paragraphsOf(partRoot(t, doc, documentPart))[0])
	assert.True(t, hasChild(runs[0], "rPr"))
	assert.Equal(t, "Ava plain", runText(runs[0]))
}

func TestFillReachesTableCells(t *testing.T) {
	tpl := newTestTemplate(t, docxtest.Spec{
		Body: docxtest.Table(
			[]string{docxtest.P(docxtest.R("{Skill1}")), docxtest.P(docxtest.R("{Skill2}"))},
		),
	})

	doc, err := tpl.Fill(map[string]string{"{Skill1}": "Go", "{Skill2}": "SQL"})
	require.NoError(t, err)

	got, err := doc.Paragraphs()
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "SQL"}, got)
}

func TestFillHeaderFooterSkipsBlankParagraphs(t *testing.T) {
	tpl := newTestTemplate(t, docxtest.Spec{
		Body:   docxtest.P(docxtest.R("body")),
		Header: docxtest.P(docxtest.R("{Name}"), docxtest.BoldR(" header")) + docxtest.P(docxtest.BoldR("  "), docxtest.R(" ")),
		Footer: docxtest.P(docxtest.R("{Email}")),
	})

	doc, err := tpl.Fill(map[string]string{"{Name}": "Ava", "{Email}": "ava@example.com"})
	require.NoError(t, err)

	header := paragraphsOf(partRoot(t, doc, "word/header1.xml"))
	require.Len(t, header, 2)
	assert.Equal(t, "Ava header", paragraphText(header[0]))
	blankRuns := paragraphRuns(header[1])
	require.Len(t, blankRuns, 2)
	assert.Equal(t, "  ", runText(blankRuns[0]), "blank header paragraphs are left alone")

	footer := paragraphsOf(partRoot(t, doc, "word/footer1.xml"))
	require.Len(t, footer, 1)
	assert.Equal(t, "ava@example.com", paragraphText(footer[0]))
}

func TestFillSkipUnchangedKeepsRuns(t *testing.T) {
	spec := docxtest.Spec{
		Body: docxtest.P(docxtest.R("Plain "), docxtest.BoldR("bold")) +
			docxtest.P(docxtest.R("Hi "), docxtest.BoldR("{Name}")),
	}

	doc, err := newTestTemplate(t, spec).Fill(map[string]string{"{Name}": "Ava"}, SkipUnchanged())
	require.NoError(t, err)
	paragraphs := paragraphsOf(partRoot(t, doc, documentPart))
	untouched := paragraphRuns(paragraphs[0])
	assert.Equal(t, "Plain ", runText(untouched[0]))
	assert.Equal(t, "bold", runText(untouched[1]))
	assert.Equal(t, "Hi Ava", runText(paragraphRuns(paragraphs[1])[0]))

	doc, err = newTestTemplate(t, spec).Fill(map[string]string{"{Name}": "Ava"})
	require.NoError(t, err)
	collapsed := paragraphRuns(paragraphsOf(partRoot(t, doc, documentPart))[0])
	assert.Equal(t, "Plain bold", runText(collapsed[0]))
	assert.Equal(t, "", runText(collapsed[1]))
}

func TestFillPrefersLongestPlaceholder(t *testing.T) {
	tpl := newTestTemplate(t, docxtest.Spec{
		Body: docxtest.P(docxtest.R("{Job Title 1} / {Job Title}")),
	})

	doc, err := tpl.Fill(map[string]string{"{Job Title}": "A", "{Job Title 1}": "B"})
	require.NoError(t, err)

	got, err := doc.Paragraphs()
	require.NoError(t, err)
	assert.Equal(t, []string{"B / A"}, got)
}

func TestFillDoesNotRescanInsertedValues(t *testing.T) {
	tpl := newTestTemplate(t, docxtest.Spec{Body: docxtest.P(docxtest.R("{A}"))})

	doc, err := tpl.Fill(map[string]string{"{A}": "{B}", "{B}": "x"})
	require.NoError(t, err)

	got, err := doc.Paragraphs()
	require.NoError(t, err)
	assert.Equal(t, []string{"{B}"}, got)
}

func TestFillEncodesBreaksTabsAndMarkup(t *testing.T) {
	tpl := newTestTemplate(t, docxtest.Spec{Body: docxtest.P(docxtest.R("{Body}"))})

	doc, err := tpl.Fill(map[string]string{"{Body}": "R&D <team>\nline\tend"})
	require.NoError(t, err)

	run := paragraphRuns(paragraphsOf(partRoot(t, doc, documentPart))[0])[0]
	assert.True(t, hasChild(run, "br"))
	assert.True(t, hasChild(run, "tab"))
	assert.Equal(t, "R&D <team>\nline\tend", runText(run))
}

func TestTemplateIsReusable(t *testing.T) {
	tpl := newTestTemplate(t, docxtest.Spec{Body: docxtest.P(docxtest.R("{Name}"))})

	first, err := tpl.Fill(map[string]string{"{Name}": "Ava"})
	require.NoError(t, err)
	second, err := tpl.Fill(map[string]string{"{Name}": "Ben"})
	require.NoError(t, err)

	a, err := first.Paragraphs()
	require.NoError(t, err)
	b, err := second.Paragraphs()
	require.NoError(t, err)
	assert.Equal(t, []string{"Ava"}, a)
	assert.Equal(t, []string{"Ben"}, b)
}

func TestFillFileWithFlattenedRecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.docx")
	require.NoError(t, docxtest.WriteFile(path, docxtest.Spec{
		Body: docxtest.P(docxtest.R("{Name}")) +
			docxtest.P(docxtest.R("- {Bullet 1}")) +
			docxtest.P(docxtest.R("- {Bullet 2}")) +
			docxtest.P(docxtest.R("{Missing}")),
	}))

	section := model.Fields{
		{Key: "Name", Value: "Ava"},
		{Key: "Bullet", Value: []any{"Shipped", "Scaled"}},
	}
	doc, err := FillFile(path, placeholder.Flatten(section, " "))
	require.NoError(t, err)

	got, err := doc.Paragraphs()
	require.NoError(t, err)
	assert.Equal(t, []string{"Ava", "- Shipped", "- Scaled", "{Missing}"}, got)

	left, err := doc.Placeholders()
	require.NoError(t, err)
	assert.Equal(t, []string{"{Missing}"}, left)

	out := filepath.Join(dir, "out.docx")
	require.NoError(t, doc.Save(out))
	saved, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, doc.Bytes(), saved)
}

func TestTextFromBytesOrdersBodyBeforeHeaders(t *testing.T) {
	data, err := docxtest.Build(docxtest.Spec{
		Body: docxtest.P(docxtest.R("Summary"), docxtest.BoldR(" line")) +
			docxtest.Table([]string{docxtest.P(docxtest.R("cell"))}),
		Header: docxtest.P(docxtest.R("Ava Smith")) + docxtest.P(),
		Footer: docxtest.P(docxtest.R("page")),
	})
	require.NoError(t, err)

	got, err := TextFromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"Summary line", "cell", "page", "Ava Smith"}, got)
}

func TestNewTemplateRejectsNonZip(t *testing.T) {
	_, err := NewTemplate("bad.docx", []byte("not a zip"))
	assert.Error(t, err)
}

func TestLoadTemplateMissingFile(t *testing.T) {
	_, err := LoadTemplate(filepath.Join(t.TempDir(), "missing.docx"))
	assert.Error(t, err)
}

func TestFillKeepsRootStartTagAndPrefixes(t *testing.T) {
	tpl := newTestTemplate(t, docxtest.Spec{
		Body: docxtest.P(docxtest.R("Hi {Name}\tthere")),
	})
	doc, err := tpl.Fill(map[string]string{"{Name}": "Ava"})
	require.NoError(t, err)

	content, err := docxtest.Part(doc.Bytes(), "word/document.xml")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(content, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+"\n"+
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" `+
		`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">`), content)
	assert.True(t, strings.HasSuffix(content, "</w:document>"))
	assert.Contains(t, content, `<w:t xml:space="preserve">Hi Ava</w:t><w:tab></w:tab>`)
	assert.NotContains(t, content, "xmlns:_")
}

func TestParsePartRejectsEmptyInput(t *testing.T) {
	_, err := parsePart([]byte(`<?xml version="1.0"?>`))
	assert.Error(t, err)
}
