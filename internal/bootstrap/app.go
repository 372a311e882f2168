// Package bootstrap wires shared dependencies for the API and worker
// entrypoints.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"finops-backend/internal/ingest"
	"finops-backend/internal/jobs"
	"finops-backend/internal/queue"
	"finops-backend/internal/recommendations"
	"finops-backend/internal/recommendations/classifier"
	"finops-backend/internal/reports"
	"finops-backend/internal/shared/config"
	"finops-backend/internal/shared/server"
	"finops-backend/internal/shared/storage/db"
	"finops-backend/internal/shared/storage/object"
	localstore "finops-backend/internal/shared/storage/object/local"
	s3store "finops-backend/internal/shared/storage/object/s3"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client

	RecordsRepo recommendations.Repo
	JobsRepo    jobs.Repo
	ReportsRepo reports.Repo

	JobsService  *jobs.Service
	JobProcessor JobProcessor

	IngestHandler  *ingest.Handler
	JobsHandler    *jobs.Handler
	ReportsHandler *reports.Handler
}

// JobProcessor allows callers to override job processing for tests.
type JobProcessor interface {
	Process(ctx context.Context, jobID string) error
}

// BuildOptions tunes Build for a specific entrypoint.
type BuildOptions struct {
	// DBOptions defaults to server pool settings; the worker passes its own.
	DBOptions *db.Options
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	return BuildWithOptions(cfg, BuildOptions{})
}

// BuildWithOptions prepares shared dependencies with entrypoint overrides.
func BuildWithOptions(cfg config.Config, opts BuildOptions) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:         app.Config,
		IngestHandler:  app.IngestHandler,
		JobsHandler:    app.JobsHandler,
		ReportsHandler: app.ReportsHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config, buildOpts BuildOptions) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	defaults := db.DefaultServerOptions()
	if buildOpts.DBOptions != nil {
		defaults = *buildOpts.DBOptions
	}
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(defaults))
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if cfg.QueueURL == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.QueueURL, cfg.AWSRegion)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) {
	var recordsRepo recommendations.Repo
	var jobsRepo jobs.Repo
	var reportsRepo reports.Repo

	if app.DB != nil {
		recordsRepo = &recommendations.PGRepo{DB: app.DB}
		jobsRepo = &jobs.PGRepo{DB: app.DB}
		reportsRepo = &reports.PGRepo{DB: app.DB}
	} else {
		recordsRepo = recommendations.NewMemoryRepo()
		jobsRepo = jobs.NewMemoryRepo()
		reportsRepo = reports.NewMemoryRepo()
	}

	assembler := &reports.Assembler{
		Repo:  reportsRepo,
		Store: app.Store,
	}

	jobsSvc := &jobs.Service{
		Repo:                jobsRepo,
		Records:             recordsRepo,
		Classifier:          classifier.NewDefault(),
		Assembler:           assembler,
		Queue:               app.Queue,
		MaxRetries:          app.Config.JobMaxRetries,
		AttemptTimeout:      app.Config.JobAttemptTimeout,
		BackoffBase:         app.Config.JobBackoffBase,
		ClassifyConcurrency: app.Config.ClassifyConcurrency,
	}

	app.RecordsRepo = recordsRepo
	app.JobsRepo = jobsRepo
	app.ReportsRepo = reportsRepo
	app.JobsService = jobsSvc
	app.JobProcessor = jobsSvc
	app.IngestHandler = ingest.NewHandler(recordsRepo, app.Store)
	app.JobsHandler = jobs.NewHandler(jobsSvc)
	app.ReportsHandler = reports.NewHandler(reportsRepo)
}
