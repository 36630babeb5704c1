package bootstrap

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/documents"
	"resume-tailor/internal/llm"
	openai "resume-tailor/internal/llm/openai"
	"resume-tailor/internal/pdfconv"
	"resume-tailor/internal/records"
	"resume-tailor/internal/services/health"
	"resume-tailor/internal/settings"
	"resume-tailor/internal/shared/config"
	"resume-tailor/internal/shared/metrics"
	"resume-tailor/internal/shared/server"
	"resume-tailor/internal/shared/storage/object"
	localstore "resume-tailor/internal/shared/storage/object/local"
	s3store "resume-tailor/internal/shared/storage/object/s3"
	"resume-tailor/internal/shared/telemetry"
	"resume-tailor/internal/staging"
	"resume-tailor/internal/workerproc"
	"resume-tailor/resume/service"
)

// App holds shared dependencies.
type App struct {
	Config    config.Config
	Paths     config.Paths
	Router    *gin.Engine
	Records   *records.Store
	Settings  *settings.Store
	Staging   *staging.Area
	Mirror    object.ObjectStore
	Generator *service.Generator
	Worker    *workerproc.Worker
	Documents *documents.Service
}

// Build prepares shared dependencies and the router. Nothing runs until
// Startup and Worker.Run are called.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()
	paths := cfg.Layout()

	for _, dir := range []string{paths.BaseResumes, paths.Resources, paths.Results, paths.JSONData, paths.Temp} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	mirror, err := buildMirror(ctx, cfg)
	if err != nil {
		return nil, err
	}
	resources, err := service.LoadResources(paths)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		Paths:    paths,
		Records:  records.NewStore(paths.JSONData),
		Settings: settings.NewStore(paths.ConfigFile).WithDefaultModel(cfg.LLMModel),
		Staging:  staging.New(paths.Temp, paths.Results, pdfconv.New(cfg.PDFConverter, cfg.SofficePath)),
		Mirror:   mirror,
	}
	app.Generator = &service.Generator{
		LLM:           buildLLM(cfg),
		Records:       app.Records,
		Staging:       app.Staging,
		Settings:      app.Settings,
		Resources:     resources,
		BaseResumeDir: paths.BaseResumes,
		Mirror:        mirror,
	}
	app.Documents = &documents.Service{
		BaseResumeDir: paths.BaseResumes,
		ResultsDir:    paths.Results,
		Mirror:        mirror,
	}
	app.Worker = workerproc.New(app.Generator, workerproc.WithJobTimeout(time.Duration(cfg.OpenAITimeout)*time.Second*3))
	app.Router = server.NewRouter(cfg, server.Deps{
		Health:    health.NewService(paths),
		Records:   records.NewHandler(app.Records),
		Settings:  &settings.Handler{Store: app.Settings},
		Generate:  &workerproc.Handler{Worker: app.Worker},
		Documents: documents.NewHandler(app.Documents, app.Records),
	})
	return app, nil
}

// Startup promotes documents left in staging by an interrupted run and, when
// enabled in settings, archives expired applications.
func (a *App) Startup(now time.Time) error {
	promoted, err := a.Staging.Promote()
	if err != nil {
		telemetry.Warn("startup.promote_failed", map[string]any{"err": err})
	} else if len(promoted) > 0 {
		telemetry.Info("startup.promoted_leftovers", map[string]any{"files": len(promoted)})
	}

	current, err := a.Settings.Load()
	if err != nil {
		return err
	}
	if !current.AutoArchiveExpired {
		return nil
	}
	moved, err := a.Records.ArchiveExpired(now)
	metrics.AddRecordsArchived(len(moved))
	telemetry.Info("startup.auto_archive", map[string]any{"archived": len(moved)})
	if err != nil {
		telemetry.Warn("startup.auto_archive_partial", map[string]any{"err": err})
	}
	return nil
}

func buildLLM(cfg config.Config) llm.Client {
	if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		telemetry.Warn("llm.not_configured", map[string]any{"hint": "set OPENAI_API_KEY"})
		return llm.PlaceholderClient{}
	}
	client, err := openai.NewClient(cfg.OpenAIAPIKey, time.Duration(cfg.OpenAITimeout)*time.Second)
	if err != nil {
		telemetry.Warn("llm.not_configured", map[string]any{"err": err})
		return llm.PlaceholderClient{}
	}
	return client
}

func buildMirror(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ResultsMirror {
	case "s3":
		if strings.TrimSpace(cfg.AWSRegion) == "" || strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("RESULTS_MIRROR=s3 requires AWS_REGION and S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "local":
		return localstore.New(cfg.MirrorDir), nil
	default:
		return nil, nil
	}
}
