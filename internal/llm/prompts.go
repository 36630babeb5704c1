package llm

import (
	_ "embed"
	"strings"
)

//go:embed prompts/tailor.md
var defaultPrompt string

// DefaultPrompt returns the built-in prompt used when the resources
// directory has no prompt file.
func DefaultPrompt() string {
	return defaultPrompt
}

// PromptInput carries everything a tailoring prompt can reference.
type PromptInput struct {
	Template       string
	JSONTemplate   string
	BaseResume     string
	Company        string
	JobTitle       string
	JobDescription string
}

const (
	tokenJobDescription = "{Job Description}"
	tokenBaseResume     = "{Base Resume}"
	tokenJSONTemplate   = "{Json Template}"
	tokenCompany        = "{Company Name}"
	tokenJobTitle       = "{Job Title}"
)

// BuildPrompt fills the prompt template. Any of the job description, base
// résumé or JSON template that the template does not reference is appended
// as its own section so the model always sees it.
func BuildPrompt(in PromptInput) string {
	tpl := in.Template
	if strings.TrimSpace(tpl) == "" {
		tpl = defaultPrompt
	}

	company := strings.TrimSpace(in.Company)
	if company == "" {
		company = "N/A"
	}
	title := strings.TrimSpace(in.JobTitle)
	if title == "" {
		title = "N/A"
	}

	replacer := strings.NewReplacer(
		tokenJobDescription, in.JobDescription,
		tokenBaseResume, in.BaseResume,
		tokenJSONTemplate, in.JSONTemplate,
		tokenCompany, company,
		tokenJobTitle, title,
	)
	var b strings.Builder
	b.WriteString(replacer.Replace(tpl))

	sections := []struct {
		token, heading, body string
	}{
		{tokenJobDescription, "Job Description", in.JobDescription},
		{tokenBaseResume, "Base Resume", in.BaseResume},
		{tokenJSONTemplate, "Json Template", in.JSONTemplate},
	}
	for _, s := range sections {
		if strings.Contains(tpl, s.token) || strings.TrimSpace(s.body) == "" {
			continue
		}
		b.WriteString("\n\n## ")
		b.WriteString(s.heading)
		b.WriteString("\n")
		b.WriteString(s.body)
	}
	return b.String()
}
