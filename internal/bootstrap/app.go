package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	googleauth "doculingua-backend/internal/auth"
	"doculingua-backend/internal/documents"
	"doculingua-backend/internal/extract"
	"doculingua-backend/internal/extract/tesseract"
	"doculingua-backend/internal/mail"
	"doculingua-backend/internal/services/health"
	"doculingua-backend/internal/shared/auth"
	"doculingua-backend/internal/shared/config"
	"doculingua-backend/internal/shared/server"
	"doculingua-backend/internal/shared/storage/db"
	"doculingua-backend/internal/shared/storage/object"
	localstore "doculingua-backend/internal/shared/storage/object/local"
	miniostore "doculingua-backend/internal/shared/storage/object/minio"
	s3store "doculingua-backend/internal/shared/storage/object/s3"
	"doculingua-backend/internal/shared/telemetry"
	"doculingua-backend/internal/translate"
	googletranslate "doculingua-backend/internal/translate/google"
	"doculingua-backend/internal/translate/rapidapi"
	"doculingua-backend/internal/users"
)

// App holds shared dependencies and the assembled router.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Mongo            *mongo.Client
	Redis            *redis.Client
	Store            object.BlobStore
	Tokens           *auth.Manager
	Revoker          auth.Revoker
	Translator       translate.Translator
	Mailer           mail.Mailer
	UsersRepo        users.Repo
	DocumentsRepo    documents.Repo
	UsersService     *users.Service
	DocumentsService *documents.Service
	UsersHandler     *users.Handler
	DocumentsHandler *documents.Handler
	GoogleAuth       *googleauth.GoogleService
	Health           *health.Service
}

type repos struct {
	users     users.Repo
	documents documents.Repo
}

// Build wires every dependency from cfg and mounts the routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	tokens, err := auth.NewManager(cfg.JWTSecret, cfg.Env, cfg.JWTTTL)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		Tokens: tokens,
		Health: health.NewService(),
	}

	rs, err := app.buildRepos(ctx)
	if err != nil {
		return nil, err
	}
	app.UsersRepo = rs.users
	app.DocumentsRepo = rs.documents

	if app.Store, err = buildStore(ctx, cfg); err != nil {
		app.Close()
		return nil, err
	}
	if app.Revoker, err = app.buildRevoker(ctx); err != nil {
		app.Close()
		return nil, err
	}
	if app.Translator, err = buildTranslator(ctx, cfg); err != nil {
		app.Close()
		return nil, err
	}
	if app.Mailer, err = buildMailer(cfg); err != nil {
		app.Close()
		return nil, err
	}

	app.buildServices()

	var filesDir string
	if local, ok := app.Store.(*localstore.Store); ok {
		filesDir = local.Dir()
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		Tokens:          tokens,
		Revoker:         app.Revoker,
		UserHandler:     app.UsersHandler,
		DocumentHandler: app.DocumentsHandler,
		GoogleAuth:      app.GoogleAuth,
		Health:          app.Health,
		FilesDir:        filesDir,
	})

	return app, nil
}

// Close releases database and cache connections. Safe to call on a partial App.
func (a *App) Close() {
	if a.DB != nil {
		_ = a.DB.Close()
	}
	if a.Mongo != nil {
		_ = a.Mongo.Disconnect(context.Background())
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
}

func (a *App) buildRepos(ctx context.Context) (repos, error) {
	cfg := a.Config
	switch cfg.RecordStore {
	case "memory":
		return memoryRepos(), nil
	case "mongo":
		return a.buildMongo(ctx)
	default:
		sqlDB, err := buildDB(ctx, cfg)
		if err != nil {
			return repos{}, err
		}
		if sqlDB == nil {
			return memoryRepos(), nil
		}
		a.DB = sqlDB
		a.Health.Register("postgres", sqlDB.PingContext)
		return repos{
			users:     &users.PGRepo{DB: sqlDB},
			documents: &documents.PGRepo{DB: sqlDB},
		}, nil
	}
}

func memoryRepos() repos {
	return repos{users: users.NewMemoryRepo(), documents: documents.NewMemoryRepo()}
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.db.fallback", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.db.fallback", map[string]any{"error": err})
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func (a *App) buildMongo(ctx context.Context) (repos, error) {
	cfg := a.Config
	if strings.TrimSpace(cfg.MongoURI) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.mongo.fallback", map[string]any{"reason": "MONGODB_URI empty"})
			return memoryRepos(), nil
		}
		return repos{}, fmt.Errorf("MONGODB_URI is required")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return repos{}, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.mongo.fallback", map[string]any{"error": err})
			return memoryRepos(), nil
		}
		return repos{}, fmt.Errorf("ping mongo: %w", err)
	}

	database := client.Database(cfg.MongoDB)
	userRepo := users.NewMongoRepo(database.Collection("users"))
	docRepo := documents.NewMongoRepo(database.Collection("documents"))
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return repos{}, err
	}
	if err := docRepo.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return repos{}, err
	}

	a.Mongo = client
	a.Health.Register("mongo", func(ctx context.Context) error { return client.Ping(ctx, nil) })
	return repos{users: userRepo, documents: docRepo}, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.BlobStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.AWSRegion) == "" || strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires AWS_REGION and S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "minio":
		return miniostore.New(ctx, miniostore.Options{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			UseSSL:    cfg.Minio.UseSSL,
		})
	default:
		return localstore.New(cfg.LocalStoreDir, cfg.PublicBaseURL), nil
	}
}

func (a *App) buildRevoker(ctx context.Context) (auth.Revoker, error) {
	cfg := a.Config
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return auth.NopRevoker{}, nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPass})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.redis.fallback", map[string]any{"error": err})
			return auth.NopRevoker{}, nil
		}
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	a.Redis = client
	a.Health.Register("redis", func(ctx context.Context) error { return client.Ping(ctx).Err() })
	return auth.NewRedisRevoker(client), nil
}

func buildTranslator(ctx context.Context, cfg config.Config) (translate.Translator, error) {
	tc := cfg.Translate
	var (
		t   translate.Translator
		err error
	)
	switch tc.Provider {
	case "rapidapi", "":
		t, err = rapidapi.New(rapidapi.Options{APIKey: tc.RapidAPIKey, Host: tc.RapidAPIHost, Timeout: tc.Timeout})
	case "google":
		t, err = googletranslate.New(ctx, googletranslate.Options{APIKey: tc.GoogleKey, Timeout: tc.Timeout})
	case "none":
		err = errors.New("translation disabled")
	default:
		return nil, fmt.Errorf("unknown TRANSLATE_PROVIDER %q", tc.Provider)
	}
	if err != nil {
		if cfg.Env == "production" && tc.Provider != "none" {
			return nil, err
		}
		telemetry.Warn("bootstrap.translate.unavailable", map[string]any{"provider": tc.Provider, "error": err})
		return translate.Unavailable{}, nil
	}
	return translate.NewThrottled(t, tc.RatePerSec, tc.Burst), nil
}

func buildMailer(cfg config.Config) (mail.Mailer, error) {
	if strings.TrimSpace(cfg.SMTP.Host) == "" {
		return mail.LogMailer{}, nil
	}
	return mail.NewSMTP(mail.SMTPOptions{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
}

func (a *App) buildServices() {
	cfg := a.Config

	var factory extract.RecognizerFactory
	switch {
	case !cfg.OCREnabled:
	case !tesseract.Available:
		telemetry.Warn("bootstrap.ocr.unavailable", map[string]any{"reason": "built with noocr"})
	default:
		factory = tesseract.NewFactory(cfg.OCRLangs)
	}

	userSvc := users.NewService(a.UsersRepo, a.Tokens, a.Mailer, a.Store)
	userSvc.Revoker = a.Revoker

	docSvc := documents.NewService(a.DocumentsRepo, userSvc, a.Store, extract.New(factory), a.Translator)
	userSvc.Docs = docSvc

	docHandler := documents.NewHandler(docSvc)
	if cfg.MaxUploadBytes > 0 {
		docHandler.MaxUploadSize = cfg.MaxUploadBytes
	}

	a.UsersService = userSvc
	a.DocumentsService = docSvc
	a.UsersHandler = users.NewHandler(userSvc)
	a.DocumentsHandler = docHandler
	a.GoogleAuth = googleauth.NewGoogleService(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL,
		cfg.UIRedirectURL,
		userSvc,
	)
}
