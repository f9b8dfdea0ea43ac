package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"constructia-backend/internal/audit"
	"constructia-backend/internal/classify"
	"constructia-backend/internal/cleanup"
	"constructia-backend/internal/clients"
	"constructia-backend/internal/documents"
	"constructia-backend/internal/events"
	"constructia-backend/internal/handoff"
	"constructia-backend/internal/lock"
	"constructia-backend/internal/platform"
	"constructia-backend/internal/queue"
	"constructia-backend/internal/services/health"
	"constructia-backend/internal/shared/auth"
	"constructia-backend/internal/shared/config"
	"constructia-backend/internal/shared/retry"
	"constructia-backend/internal/shared/server"
	"constructia-backend/internal/shared/server/middleware"
	"constructia-backend/internal/shared/storage/db"
	"constructia-backend/internal/shared/storage/object"
	localstore "constructia-backend/internal/shared/storage/object/local"
	miniostore "constructia-backend/internal/shared/storage/object/minio"
	s3store "constructia-backend/internal/shared/storage/object/s3"
	"constructia-backend/internal/shared/telemetry"
)

const (
	defaultRegion   = "eu-west-1"
	lockKeyPrefix   = "constructia:lock:"
	tokenTTL        = 12 * time.Hour
	shutdownTimeout = 10 * time.Second
)

// App holds shared dependencies and the HTTP router.
type App struct {
	Config   config.Config
	Router   *gin.Engine
	DB       *sql.DB
	Store    object.ObjectStore
	Queue    queue.Client
	Events   events.Publisher
	Locker   lock.Locker
	Uploader platform.Uploader
	Tokens   *auth.Manager

	DocumentsRepo documents.DocumentsRepo
	ClientsRepo   clients.Repo
	AuditStore    audit.Store

	AuditWriter      *audit.Writer
	Audit            *audit.AsyncWriter
	DocumentsService *documents.Service
	ClientsService   *clients.Service
	HandoffService   *handoff.Service
	Sweeper          *cleanup.Sweeper

	DocumentsHandler *documents.Handler
	ClientsHandler   *clients.Handler
	HandoffHandler   *handoff.Handler
	AuditHandler     *audit.Handler
	CleanupHandler   *cleanup.Handler

	closers []func(context.Context) error
}

// Build prepares every dependency and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	if strings.TrimSpace(cfg.AWSRegion) == "" {
		cfg.AWSRegion = defaultRegion
	}
	ctx := context.Background()

	app := &App{Config: cfg}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.DB = sqlDB
	if sqlDB != nil && !db.IsLambdaRuntime() {
		app.closers = append(app.closers, func(context.Context) error { return sqlDB.Close() })
	}

	if app.Store, err = buildStore(ctx, cfg); err != nil {
		return nil, err
	}
	if app.Queue, err = buildQueue(ctx, cfg); err != nil {
		return nil, err
	}
	if err := app.buildEvents(cfg); err != nil {
		return nil, err
	}
	if err := app.buildLocker(ctx, cfg); err != nil {
		return nil, err
	}
	if app.Uploader, err = buildUploader(cfg, app.Store); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.JWTSecret) != "" {
		app.Tokens = auth.NewManager(cfg.JWTSecret, cfg.JWTIssuer, tokenTTL)
	} else if !cfg.IsDevLike() {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	var verifier middleware.TokenVerifier
	if app.Tokens != nil {
		verifier = app.Tokens
	}
	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		Verifier:        verifier,
		Health:          health.NewService(app.DB),
		DocumentHandler: app.DocumentsHandler,
		ClientHandler:   app.ClientsHandler,
		HandoffHandler:  app.HandoffHandler,
		AuditHandler:    app.AuditHandler,
		CleanupHandler:  app.CleanupHandler,
	})

	return app, nil
}

// Close drains pending audit entries and releases connections.
func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.Audit != nil {
		if err := a.Audit.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close audit writer: %w", err))
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Shutdown closes the app with a bounded timeout and logs failures.
func (a *App) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Close(ctx); err != nil {
		telemetry.Error("bootstrap.close_failed", map[string]any{"error": err.Error()})
	}
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.OptionsFromEnv(db.DefaultLambdaOptions())
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "database connect failed", "error": err.Error()})
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
	case "minio":
		store, err := miniostore.New(miniostore.Options{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
		})
		if err != nil {
			return nil, err
		}
		ensureCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := store.EnsureBucket(ensureCtx); err != nil {
			return nil, fmt.Errorf("minio ensure bucket: %w", err)
		}
		return store, nil
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.SQSQueueURL) == "" {
		return nil, nil
	}
	client, err := queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.SQSQueueURL)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (a *App) buildEvents(cfg config.Config) error {
	a.Events = events.Nop{}
	if strings.TrimSpace(cfg.NATSURL) == "" {
		return nil
	}
	pub, err := events.ConnectNATS(cfg.NATSURL, cfg.NATSStream)
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.events_disabled", map[string]any{"error": err.Error()})
			return nil
		}
		return err
	}
	a.Events = pub
	a.closers = append(a.closers, func(context.Context) error { return pub.Close() })
	return nil
}

func (a *App) buildLocker(ctx context.Context, cfg config.Config) error {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		a.Locker = lock.NewMemory(nil)
		return nil
	}
	client, err := lock.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.lock_memory", map[string]any{"error": err.Error()})
			a.Locker = lock.NewMemory(nil)
			return nil
		}
		return err
	}
	a.Locker = lock.NewRedis(client, lockKeyPrefix)
	a.closers = append(a.closers, func(context.Context) error { return client.Close() })
	return nil
}

func buildUploader(cfg config.Config, store object.ObjectStore) (platform.Uploader, error) {
	switch cfg.PlatformMode {
	case "http":
		client, err := platform.NewHTTPClient(platform.HTTPOptions{
			BaseURL:  cfg.PlatformBaseURL,
			TokenURL: cfg.PlatformTokenURL,
			ClientID: cfg.PlatformClientID,
			Timeout:  cfg.HandoffTimeout,
		}, store)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return platform.NewStub(cfg.PlatformStubSuccessRate, cfg.PlatformStubLatency), nil
	}
}

func buildServices(app *App) error {
	cfg := app.Config

	if app.DB != nil {
		app.DocumentsRepo = &documents.PGRepo{DB: app.DB}
		app.ClientsRepo = &clients.PGRepo{DB: app.DB}
		app.AuditStore = &audit.PGStore{DB: app.DB}
	} else {
		app.DocumentsRepo = documents.NewMemoryRepo()
		app.ClientsRepo = clients.NewMemoryRepo()
		app.AuditStore = audit.NewMemoryStore()
	}

	app.AuditWriter = audit.NewWriter(app.AuditStore)
	app.Audit = audit.NewAsyncWriter(app.AuditWriter, app.Events, cfg.AuditBuffer)

	app.ClientsService = &clients.Service{Repo: app.ClientsRepo, Audit: app.Audit}
	app.DocumentsService = &documents.Service{
		Store:      app.Store,
		Repo:       app.DocumentsRepo,
		Classifier: classify.New(),
		Clients:    app.ClientsService,
		Audit:      app.Audit,
	}
	app.HandoffService = &handoff.Service{
		Clients:         app.ClientsRepo,
		Documents:       app.DocumentsRepo,
		Uploader:        app.Uploader,
		Retry:           retry.NewPolicy(cfg.HandoffRetryAttempts, cfg.HandoffRetryBaseDelay, cfg.HandoffRetryMaxDelay),
		Locker:          app.Locker,
		LockTTL:         cfg.LockTTL,
		Audit:           app.Audit,
		Timeout:         cfg.HandoffTimeout,
		RetentionWindow: cfg.RetentionWindow,
	}
	app.Sweeper = &cleanup.Sweeper{
		Repo:       app.DocumentsRepo,
		Store:      app.Store,
		Audit:      app.Audit,
		Locker:     app.Locker,
		BatchLimit: cfg.SweepBatchLimit,
		LockTTL:    cfg.LockTTL,
	}

	app.DocumentsHandler = documents.NewHandler(app.DocumentsService)
	app.ClientsHandler = clients.NewHandler(app.ClientsService)
	app.HandoffHandler = handoff.NewHandler(app.HandoffService, app.Queue)
	app.AuditHandler = audit.NewHandler(app.AuditWriter)
	app.CleanupHandler = cleanup.NewHandler(app.Sweeper)

	if app.DocumentsHandler == nil || app.HandoffHandler == nil {
		return errors.New("failed to initialize handlers")
	}
	return nil
}
