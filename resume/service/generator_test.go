package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-tailor/internal/llm"
	"resume-tailor/internal/records"
	"resume-tailor/internal/settings"
	"resume-tailor/internal/shared/config"
	"resume-tailor/internal/shared/docxtest"
	"resume-tailor/internal/staging"
	"resume-tailor/resume/model"
	"resume-tailor/resume/render"
)

const modelReply = "```json\n" + `{
  "Meta": {"File Name": "Acme SRE"},
  "Job": {"Position": "", "Company": "Acme", "Expected Response Date": "04/01/26", "Tech Stack": ["Go"]},
  "Resume": {"File Name": "Ava Smith Resume", "Name": "Ava Smith", "Bullet": ["Ran on-call", "Cut costs"]},
  "CoverLetter": {"Body": "Dear Acme"}
}` + "\n```"

type fakeLLM struct {
	reply string
	err   error
	got   []llm.Request
}

func (f *fakeLLM) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	f.got = append(f.got, req)
	if f.err != nil {
		return llm.Response{}, f.err
	}
	return llm.Response{Content: f.reply, Model: req.Model}, nil
}

type memoryMirror struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memoryMirror) Put(ctx context.Context, key, contentType string, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = data
	return int64(len(data)), nil
}

func (m *memoryMirror) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type fixture struct {
	paths  config.Paths
	gen    *Generator
	llm    *fakeLLM
	store  *records.Store
	mirror *memoryMirror
}

func newFixture(t *testing.T, reply string) fixture {
	t.Helper()
	paths := config.LayoutAt(t.TempDir())
	require.NoError(t, os.MkdirAll(paths.Resources, 0o755))
	require.NoError(t, docxtest.WriteFile(paths.ResumeTemplate, docxtest.Spec{
		Body:   docxtest.P(docxtest.BoldR("{Na"), docxtest.R("me}")) + docxtest.P(docxtest.R("{Bullet1}; {Bullet2}; {Bullet3}")),
		Header: docxtest.P(docxtest.R("{Name}")),
	}))
	require.NoError(t, docxtest.WriteFile(paths.CoverLetterTemplate, docxtest.Spec{Body: docxtest.P(docxtest.R("{Body}"))}))
	require.NoError(t, os.MkdirAll(paths.BaseResumes, 0o755))
	require.NoError(t, docxtest.WriteFile(filepath.Join(paths.BaseResumes, "mine.docx"), docxtest.Spec{Body: docxtest.P(docxtest.R("Ten years of Go"))}))
	require.NoError(t, os.WriteFile(paths.Prompt, []byte("Tailor for {Company Name}.\n{Base Resume}\n{Job Description}"), 0o644))

	res, err := LoadResources(paths)
	require.NoError(t, err)

	fake := &fakeLLM{reply: reply}
	store := records.NewStore(paths.JSONData)
	mirror := &memoryMirror{}
	gen := &Generator{
		LLM:           fake,
		Records:       store,
		Staging:       staging.New(paths.Temp, paths.Results, nil),
		Settings:      settings.NewStore(paths.ConfigFile),
		Resources:     res,
		BaseResumeDir: paths.BaseResumes,
		Mirror:        mirror,
		Now:           func() time.Time { return time.Date(2026, 3, 15, 9, 30, 0, 0, time.Local) },
	}
	return fixture{paths: paths, gen: gen, llm: fake, store: store, mirror: mirror}
}

func TestGenerateRunsFullCycle(t *testing.T) {
	fx := newFixture(t, modelReply)

	result, err := fx.gen.Generate(context.Background(), GenerateInput{Company: "Acme", JobTitle: "SRE", JobDescription: "keep it up"})
	require.NoError(t, err)

	require.Len(t, fx.llm.got, 1)
	req := fx.llm.got[0]
	assert.Equal(t, settings.DefaultModel, req.Model)
	assert.True(t, req.JSON)
	assert.Contains(t, req.Prompt, "Tailor for Acme.")
	assert.Contains(t, req.Prompt, "mine.docx\n "+strings.Repeat("-", 50)+"\nTen years of Go")
	assert.Contains(t, req.Prompt, "keep it up")

	assert.Equal(t, "Acme SRE", result.ID)
	assert.ElementsMatch(t, []string{"Ava Smith Resume.docx", "Acme SRE Cover Letter.docx"}, result.Files)

	saved, err := fx.store.Load("Acme SRE")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-15 09:30:00", saved.Meta.DateCreated)
	assert.Equal(t, settings.DefaultModel, saved.Meta.Model)
	assert.Equal(t, "SRE", saved.Job.Position)
	assert.Equal(t, "03/15/26", saved.Job.DateApplied)
	assert.Equal(t, filepath.Join(fx.paths.Results, "Ava Smith Resume.docx"), saved.Meta.ResumePath)
	assert.Equal(t, filepath.Join(fx.paths.Results, "Acme SRE Cover Letter.docx"), saved.Meta.CoverLetterPath)

	paragraphs, err := render.ParagraphTexts(saved.Meta.ResumePath)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ava Smith", "Ran on-call; Cut costs; {Bullet3}", "Ava Smith"}, paragraphs)

	cover, err := render.ParagraphTexts(saved.Meta.CoverLetterPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dear Acme"}, cover)

	assert.Contains(t, fx.mirror.objects, "Acme SRE/Ava Smith Resume.docx")
}

func TestGenerateUsesSettingsModelAndSeparator(t *testing.T) {
	fx := newFixture(t, strings.Replace(modelReply, `"Bullet"`, `"Item"`, 1))
	store := settings.NewStore(fx.paths.ConfigFile)
	modelName := "gpt-4.1-mini"
	sep := " "
	_, err := store.Update(settings.Patch{GPTModel: &modelName, ListKeySeparator: &sep})
	require.NoError(t, err)
	require.NoError(t, docxtest.WriteFile(fx.paths.ResumeTemplate, docxtest.Spec{Body: docxtest.P(docxtest.R("{Item 2}"))}))

	_, err = fx.gen.Generate(context.Background(), GenerateInput{JobDescription: "jd"})
	require.NoError(t, err)
	assert.Equal(t, modelName, fx.llm.got[0].Model)

	paragraphs, err := render.ParagraphTexts(filepath.Join(fx.paths.Results, "Ava Smith Resume.docx"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Cut costs"}, paragraphs)
}

func TestGenerateMalformedReplyTouchesNothing(t *testing.T) {
	fx := newFixture(t, "sorry, I cannot help")
	require.NoError(t, os.MkdirAll(fx.paths.Temp, 0o755))
	leftover := filepath.Join(fx.paths.Temp, "previous.docx")
	require.NoError(t, os.WriteFile(leftover, []byte("x"), 0o644))

	_, err := fx.gen.Generate(context.Background(), GenerateInput{JobDescription: "jd"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrMalformedResponse))
	assert.FileExists(t, leftover)

	entries, err := fx.store.ListAll()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerateMissingSection(t *testing.T) {
	fx := newFixture(t, `{"Meta": {"File Name": "x"}, "Job": {}}`)
	_, err := fx.gen.Generate(context.Background(), GenerateInput{JobDescription: "jd"})
	assert.ErrorIs(t, err, model.ErrMissingSection)
}

func TestGenerateRequiresJobDescription(t *testing.T) {
	fx := newFixture(t, modelReply)
	_, err := fx.gen.Generate(context.Background(), GenerateInput{Company: "Acme"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, fx.llm.got)
}

func TestGenerateLLMFailure(t *testing.T) {
	fx := newFixture(t, "")
	fx.llm.err = errors.New("upstream down")
	_, err := fx.gen.Generate(context.Background(), GenerateInput{JobDescription: "jd"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream down")
}

func TestRenderWritesIntoResults(t *testing.T) {
	fx := newFixture(t, modelReply)
	record, err := model.ParseResponse(modelReply)
	require.NoError(t, err)

	written, err := fx.gen.Render(record)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(fx.paths.Results, "Ava Smith Resume.docx"),
		filepath.Join(fx.paths.Results, "Acme SRE Cover Letter.docx"),
	}, written)
	for _, path := range written {
		assert.FileExists(t, path)
	}
}

func TestRenderAllContinuesPastFailures(t *testing.T) {
	fx := newFixture(t, modelReply)
	good, err := model.ParseResponse(modelReply)
	require.NoError(t, err)
	bad := good
	bad.Resume = model.Fields{{Key: "File Name", Value: "../escape"}}

	written, err := fx.gen.RenderAll([]records.Entry{{ID: "bad", Record: bad}, {ID: "good", Record: good}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "render bad")
	assert.Len(t, written, 2)
}

func TestLoadResourcesFallsBackToDefaultPrompt(t *testing.T) {
	paths := config.LayoutAt(t.TempDir())
	res, err := LoadResources(paths)
	require.NoError(t, err)
	assert.Equal(t, llm.DefaultPrompt(), res.Prompt)
	assert.Empty(t, res.JSONTemplate)
	assert.Equal(t, paths.ResumeTemplate, res.ResumeTemplate)
}
