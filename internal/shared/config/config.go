package config

import (
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port            string   `env:"PORT" envDefault:"8080"`
	Env             string   `env:"ENV" envDefault:"dev"`
	LogLevel        string   `env:"LOG_LEVEL" envDefault:"info"`
	CORSAllowOrigin []string `env:"CORS_ALLOW_ORIGINS" envSeparator:"," envDefault:"http://localhost:8081"`
	MaxUploadBytes  int64    `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`

	DatabaseURL string `env:"DATABASE_URL"`
	RecordStore string `env:"RECORD_STORE" envDefault:"postgres"`
	MongoURI    string `env:"MONGODB_URI"`
	MongoDB     string `env:"MONGODB_DATABASE" envDefault:"doculingua"`

	ObjectStoreType string `env:"OBJECT_STORE" envDefault:"local"`
	LocalStoreDir   string `env:"LOCAL_STORE_DIR" envDefault:"./data"`
	PublicBaseURL   string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080/files"`
	AWSRegion       string `env:"AWS_REGION"`
	S3Bucket        string `env:"S3_BUCKET"`
	S3Prefix        string `env:"S3_PREFIX"`
	SSEKMSKeyID     string `env:"SSE_KMS_KEY_ID"`
	Minio           Minio  `envPrefix:"MINIO_"`

	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"168h"`
	RedisAddr string        `env:"REDIS_ADDR"`
	RedisPass string        `env:"REDIS_PASSWORD"`

	Translate  Translate `envPrefix:"TRANSLATE_"`
	OCREnabled bool      `env:"OCR_ENABLED" envDefault:"true"`
	OCRLangs   []string  `env:"OCR_LANGUAGES" envSeparator:"," envDefault:"eng"`
	SMTP       SMTP      `envPrefix:"SMTP_"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL"`
	UIRedirectURL      string `env:"UI_REDIRECT_URL" envDefault:"doculingua://auth"`
}

// Minio configures the MinIO blob store.
type Minio struct {
	Endpoint  string `env:"ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET" envDefault:"doculingua"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
}

// Translate configures the hosted translation provider.
type Translate struct {
	Provider     string        `env:"PROVIDER" envDefault:"rapidapi"`
	RapidAPIKey  string        `env:"RAPIDAPI_KEY"`
	RapidAPIHost string        `env:"RAPIDAPI_HOST" envDefault:"deep-translate1.p.rapidapi.com"`
	GoogleKey    string        `env:"GOOGLE_API_KEY"`
	Timeout      time.Duration `env:"TIMEOUT" envDefault:"15s"`
	RatePerSec   float64       `env:"RATE_PER_SEC" envDefault:"5"`
	Burst        int           `env:"BURST" envDefault:"5"`
}

// SMTP configures outgoing mail. Empty Host means mail is logged instead of sent.
type SMTP struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM" envDefault:"DocuLingua <no-reply@doculingua.app>"`
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	for _, path := range []string{".env", "cmd/.env"} {
		_ = godotenv.Load(path)
	}

	cfg, err := Parse()
	if err != nil {
		log.Printf("config: %v", err)
	}
	if cfg.Env == "production" && cfg.DatabaseURL == "" && cfg.RecordStore == "postgres" {
		log.Printf("DATABASE_URL is required in production")
	}
	return cfg
}

// Parse builds a Config from the current environment without touching env files.
func Parse() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	cfg.Env = normalizeEnv(cfg.Env)
	cfg.ObjectStoreType = normalizeStoreType(cfg.ObjectStoreType)
	cfg.RecordStore = normalizeRecordStore(cfg.RecordStore)
	cfg.Translate.Provider = strings.ToLower(strings.TrimSpace(cfg.Translate.Provider))
	return cfg, err
}

// IsDevLike reports whether in-memory fallbacks are acceptable.
func (c Config) IsDevLike() bool {
	return c.Env == "dev" || c.Env == "local"
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "minio":
		return "minio"
	default:
		return "local"
	}
}

func normalizeRecordStore(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "mongo", "mongodb":
		return "mongo"
	case "memory":
		return "memory"
	default:
		return "postgres"
	}
}
