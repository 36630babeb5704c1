package service

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"resume-tailor/internal/llm"
	"resume-tailor/internal/shared/config"
	"resume-tailor/internal/shared/telemetry"
)

// Resources are the user-editable inputs read from the resources directory.
type Resources struct {
	Prompt              string
	JSONTemplate        string
	ResumeTemplate      string
	CoverLetterTemplate string
}

// LoadResources reads the prompt and JSON template text. A missing prompt
// falls back to the built-in one; a missing JSON template is logged and left
// empty. Template paths are only recorded, they are loaded on every fill.
func LoadResources(paths config.Paths) (Resources, error) {
	res := Resources{
		ResumeTemplate:      paths.ResumeTemplate,
		CoverLetterTemplate: paths.CoverLetterTemplate,
	}

	prompt, err := readOptional(paths.Prompt)
	if err != nil {
		return Resources{}, err
	}
	if prompt == "" {
		telemetry.Warn("resources.prompt_missing", map[string]any{"path": paths.Prompt})
		prompt = llm.DefaultPrompt()
	}
	res.Prompt = prompt

	jsonTemplate, err := readOptional(paths.JSONTemplate)
	if err != nil {
		return Resources{}, err
	}
	if jsonTemplate == "" {
		telemetry.Warn("resources.json_template_missing", map[string]any{"path": paths.JSONTemplate})
	}
	res.JSONTemplate = jsonTemplate
	return res, nil
}

func readOptional(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
