package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string

	BaseDir string

	OpenAIAPIKey  string
	LLMModel      string
	OpenAITimeout int

	PDFConverter string
	SofficePath  string

	ResultsMirror string
	MirrorDir     string
	AWSRegion     string
	S3Bucket      string
	S3Prefix      string
	SSEKMSKeyID   string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Missing env files are fine; real environment variables win.
	for _, path := range []string{".env", "cmd/.env"} {
		_ = godotenv.Load(path)
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             normalizeEnv(getEnv("ENV", "dev")),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		BaseDir:         getEnv("TAILOR_BASE_DIR", "."),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		LLMModel:        getEnv("LLM_MODEL", ""),
		OpenAITimeout:   getEnvInt("OPENAI_TIMEOUT_SECONDS", 120),
		PDFConverter:    normalizeConverter(getEnv("PDF_CONVERTER", "soffice")),
		SofficePath:     getEnv("SOFFICE_PATH", "soffice"),
		ResultsMirror:   normalizeMirror(getEnv("RESULTS_MIRROR", "none")),
		MirrorDir:       getEnv("MIRROR_DIR", "./mirror"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),
	}
}

// Paths is the directory layout under the base directory.
type Paths struct {
	Base        string
	BaseResumes string
	Resources   string
	Results     string
	JSONData    string
	Temp        string
	ConfigFile  string

	ResumeTemplate      string
	CoverLetterTemplate string
	Prompt              string
	JSONTemplate        string
}

// Layout returns the directory layout rooted at BaseDir.
func (c Config) Layout() Paths {
	return LayoutAt(c.BaseDir)
}

// LayoutAt returns the directory layout rooted at base.
func LayoutAt(base string) Paths {
	return Paths{
		Base:        base,
		BaseResumes: filepath.Join(base, "BaseResumes"),
		Resources:   filepath.Join(base, "Resources"),
		Results:     filepath.Join(base, "Results"),
		JSONData:    filepath.Join(base, "Resources", "Json Data"),
		Temp:        filepath.Join(base, "Temp"),
		ConfigFile:  filepath.Join(base, "Config.json"),

		ResumeTemplate:      filepath.Join(base, "Resources", "Resume Template.docx"),
		CoverLetterTemplate: filepath.Join(base, "Resources", "Cover Letter Template.docx"),
		Prompt:              filepath.Join(base, "Resources", "Resume Prompt.md"),
		JSONTemplate:        filepath.Join(base, "Resources", "Json Template.json"),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "development", "dev", "":
		return "dev"
	default:
		return strings.ToLower(strings.TrimSpace(raw))
	}
}

func normalizeConverter(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "none", "noop", "off":
		return "none"
	default:
		return "soffice"
	}
}

func normalizeMirror(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "local":
		return "local"
	default:
		return "none"
	}
}
