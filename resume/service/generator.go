// Package service runs the tailoring pipeline: prompt, model call, document
// rendering, staging and persistence.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"resume-tailor/internal/extract"
	"resume-tailor/internal/llm"
	"resume-tailor/internal/records"
	"resume-tailor/internal/settings"
	"resume-tailor/internal/shared/metrics"
	"resume-tailor/internal/shared/storage/object"
	"resume-tailor/internal/shared/telemetry"
	"resume-tailor/internal/shared/util"
	"resume-tailor/internal/staging"
	"resume-tailor/resume/model"
	"resume-tailor/resume/placeholder"
	"resume-tailor/resume/render"
)

// ErrInvalidInput indicates a generation request without a job description.
var ErrInvalidInput = errors.New("invalid input")

const (
	resumeSuffix      = "Resume"
	coverLetterSuffix = "Cover Letter"
	docxExt           = ".docx"
)

// RecordStore persists generated records.
type RecordStore interface {
	Save(record model.Record, id string) error
}

// SettingsSource supplies the current user settings.
type SettingsSource interface {
	Load() (settings.Settings, error)
}

// Stager holds rendered documents until they are promoted.
type Stager interface {
	Clear() error
	Stage(doc staging.Document, name string) (string, error)
	ConvertStagedToPdf(ctx context.Context) ([]string, error)
	Promote() ([]string, error)
	ResultsDir() string
}

// Generator wires the pipeline together.
type Generator struct {
	LLM       llm.Client
	Records   RecordStore
	Staging   Stager
	Settings  SettingsSource
	Resources Resources
	// BaseResumeDir holds the user's own résumés fed to the prompt.
	BaseResumeDir string
	// Mirror receives a copy of each promoted file when set.
	Mirror object.ObjectStore
	Now    func() time.Time
}

// GenerateInput is what the user types on the generator page.
type GenerateInput struct {
	Company        string `json:"company"`
	JobTitle       string `json:"jobTitle"`
	JobDescription string `json:"jobDescription"`
}

// Result describes one finished generation.
type Result struct {
	ID       string       `json:"id"`
	Record   model.Record `json:"record"`
	Files    []string     `json:"files"`
	Warnings []string     `json:"warnings,omitempty"`
}

func (g *Generator) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

// Generate runs one full cycle. Nothing on disk changes until the model
// response parses as a record.
func (g *Generator) Generate(ctx context.Context, in GenerateInput) (result Result, err error) {
	if strings.TrimSpace(in.JobDescription) == "" {
		return Result{}, fmt.Errorf("%w: job description is required", ErrInvalidInput)
	}
	started := time.Now()
	metrics.IncGenerationStarted()
	defer func() {
		metrics.ObserveGenerationDuration(time.Since(started))
		if err != nil {
			metrics.IncGenerationFailed()
			telemetry.Error("generate.failed", map[string]any{"company": in.Company, "err": err})
			return
		}
		metrics.IncGenerationCompleted()
	}()

	current, err := g.Settings.Load()
	if err != nil {
		return Result{}, err
	}
	baseResume, err := extract.BaseResumeText(ctx, g.BaseResumeDir)
	if err != nil {
		return Result{}, fmt.Errorf("base resumes: %w", err)
	}

	prompt := llm.BuildPrompt(llm.PromptInput{
		Template:       g.Resources.Prompt,
		JSONTemplate:   g.Resources.JSONTemplate,
		BaseResume:     baseResume,
		Company:        in.Company,
		JobTitle:       in.JobTitle,
		JobDescription: in.JobDescription,
	})
	resp, err := g.LLM.Complete(ctx, llm.Request{Model: current.GPTModel, Prompt: prompt, JSON: true})
	if err != nil {
		return Result{}, fmt.Errorf("llm: %w", err)
	}

	record, err := model.ParseResponse(resp.Content)
	if err != nil {
		return Result{}, err
	}
	g.stamp(&record, in, current.GPTModel)

	if err := g.Staging.Clear(); err != nil {
		return Result{}, fmt.Errorf("clear staging: %w", err)
	}
	resumeStaged, coverStaged, err := g.stageDocuments(record, current.ListKeySeparator)
	if err != nil {
		return Result{}, err
	}

	var warnings []string
	if _, err := g.Staging.ConvertStagedToPdf(ctx); err != nil {
		warnings = append(warnings, convertWarnings(err)...)
	}
	files, err := g.Staging.Promote()
	if err != nil {
		return Result{}, fmt.Errorf("promote: %w", err)
	}
	warnings = append(warnings, g.mirror(ctx, record.Meta.FileName, files)...)

	record.Meta.ResumePath = filepath.Join(g.Staging.ResultsDir(), filepath.Base(resumeStaged))
	record.Meta.CoverLetterPath = filepath.Join(g.Staging.ResultsDir(), filepath.Base(coverStaged))
	if err := g.Records.Save(record, record.Meta.FileName); err != nil {
		return Result{}, fmt.Errorf("save record: %w", err)
	}

	telemetry.Info("generate.completed", map[string]any{
		"file_name": record.Meta.FileName,
		"model":     record.Meta.Model,
		"files":     len(files),
		"warnings":  len(warnings),
	})
	return Result{ID: record.Meta.FileName, Record: record, Files: files, Warnings: warnings}, nil
}

func (g *Generator) stamp(record *model.Record, in GenerateInput, modelName string) {
	now := g.now()
	record.Meta.DateCreated = now.Format(model.DateCreatedLayout)
	record.Meta.Model = modelName
	record.Meta.Favorite = false
	if strings.TrimSpace(record.Job.Company) == "" {
		record.Job.Company = strings.TrimSpace(in.Company)
	}
	if strings.TrimSpace(record.Job.Position) == "" {
		record.Job.Position = strings.TrimSpace(in.JobTitle)
	}
	if strings.TrimSpace(record.Job.DateApplied) == "" {
		record.Job.DateApplied = now.Format(model.ShortDateLayout)
	}
}

// stageDocuments fills both templates and stages them, returning the staged
// paths of the résumé and the cover letter.
func (g *Generator) stageDocuments(record model.Record, sep string) (string, string, error) {
	resume, cover, err := g.fill(record, sep)
	if err != nil {
		return "", "", err
	}
	resumePath, err := g.Staging.Stage(resume, record.SectionName(record.Resume, resumeSuffix))
	if err != nil {
		return "", "", fmt.Errorf("stage resume: %w", err)
	}
	coverPath, err := g.Staging.Stage(cover, record.SectionName(record.CoverLetter, coverLetterSuffix))
	if err != nil {
		return "", "", fmt.Errorf("stage cover letter: %w", err)
	}
	return resumePath, coverPath, nil
}

func (g *Generator) fill(record model.Record, sep string) (*render.Document, *render.Document, error) {
	resume, err := render.FillFile(g.Resources.ResumeTemplate, placeholder.Flatten(record.Resume, sep))
	if err != nil {
		return nil, nil, fmt.Errorf("fill resume: %w", err)
	}
	cover, err := render.FillFile(g.Resources.CoverLetterTemplate, placeholder.Flatten(record.CoverLetter, sep))
	if err != nil {
		return nil, nil, fmt.Errorf("fill cover letter: %w", err)
	}
	return resume, cover, nil
}

func convertWarnings(err error) []string {
	var out []string
	for _, e := range unwrapAll(err) {
		var convErr *staging.ConvertError
		if errors.As(e, &convErr) {
			metrics.IncPDFConversionFailed()
		}
		telemetry.Warn("generate.pdf_failed", map[string]any{"err": e})
		out = append(out, e.Error())
	}
	return out
}

func unwrapAll(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

func (g *Generator) mirror(ctx context.Context, prefix string, files []string) []string {
	if g.Mirror == nil {
		return nil
	}
	var warnings []string
	for _, name := range files {
		data, err := os.ReadFile(filepath.Join(g.Staging.ResultsDir(), name))
		if err == nil {
			_, err = g.Mirror.Put(ctx, prefix+"/"+name, object.ContentType(name), bytes.NewReader(data))
		}
		if err != nil {
			telemetry.Warn("generate.mirror_failed", map[string]any{"file": name, "err": err})
			warnings = append(warnings, fmt.Sprintf("mirror %s: %v", name, err))
		}
	}
	return warnings
}

// Render re-renders both documents of an existing record straight into the
// results directory and returns the written paths.
func (g *Generator) Render(record model.Record) ([]string, error) {
	current, err := g.Settings.Load()
	if err != nil {
		return nil, err
	}
	resume, cover, err := g.fill(record, current.ListKeySeparator)
	if err != nil {
		return nil, err
	}
	dir := g.Staging.ResultsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	var written []string
	for _, doc := range []struct {
		doc  *render.Document
		name string
	}{
		{resume, record.SectionName(record.Resume, resumeSuffix)},
		{cover, record.SectionName(record.CoverLetter, coverLetterSuffix)},
	} {
		name, err := util.SanitizeFileName(doc.name)
		if err != nil {
			return written, fmt.Errorf("document name %q: %w", doc.name, err)
		}
		path := filepath.Join(dir, name+docxExt)
		if err := doc.doc.Save(path); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// RenderAll re-renders every stored record. Failures are collected and the
// batch continues.
func (g *Generator) RenderAll(entries []records.Entry) ([]string, error) {
	var (
		written []string
		errs    []error
	)
	for _, entry := range entries {
		paths, err := g.Render(entry.Record)
		written = append(written, paths...)
		if err != nil {
			errs = append(errs, fmt.Errorf("render %s: %w", entry.ID, err))
		}
	}
	return written, errors.Join(errs...)
}
