package health

import (
	"os"

	"resume-tailor/internal/shared/config"
)

// Check is one named readiness probe.
type Check struct {
	Name string `json:"name"`
	Path string `json:"path"`
	OK   bool   `json:"ok"`
}

// Service encapsulates health-related checks.
type Service struct {
	Paths config.Paths
}

// NewService constructs a new health service.
func NewService(paths config.Paths) *Service {
	return &Service{Paths: paths}
}

// Status reports whether the base directory and templates are in place. A
// missing template does not stop the server; generation will fail until it
// is added.
func (s *Service) Status() map[string]any {
	checks := []Check{
		{Name: "base_dir", Path: s.Paths.Base},
		{Name: "resume_template", Path: s.Paths.ResumeTemplate},
		{Name: "cover_letter_template", Path: s.Paths.CoverLetterTemplate},
		{Name: "base_resumes", Path: s.Paths.BaseResumes},
	}
	ready := true
	for i := range checks {
		_, err := os.Stat(checks[i].Path)
		checks[i].OK = err == nil
		ready = ready && checks[i].OK
	}
	return map[string]any{"ok": true, "ready": ready, "checks": checks}
}
