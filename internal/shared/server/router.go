package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "doculingua-backend/internal/auth"
	"doculingua-backend/internal/documents"
	"doculingua-backend/internal/services/health"
	"doculingua-backend/internal/shared/auth"
	"doculingua-backend/internal/shared/config"
	"doculingua-backend/internal/shared/metrics"
	"doculingua-backend/internal/shared/server/middleware"
	"doculingua-backend/internal/shared/server/respond"
	"doculingua-backend/internal/users"
)

// Rate limit groups.
const (
	groupAuth   = "AUTH"
	groupIngest = "INGEST"
	groupAPI    = "API"
)

// RouterDeps carries everything NewRouter mounts. Nil handlers are skipped.
type RouterDeps struct {
	Config          config.Config
	Tokens          middleware.TokenVerifier
	Revoker         auth.Revoker
	UserHandler     *users.Handler
	DocumentHandler *documents.Handler
	GoogleAuth      *googleauth.GoogleService
	Health          *health.Service
	// FilesDir is served under /files when blobs live on local disk.
	FilesDir  string
	RateRules map[string]middleware.RateLimitRule
}

// DefaultRateRules are per-caller budgets for each route group.
func DefaultRateRules() map[string]middleware.RateLimitRule {
	return map[string]middleware.RateLimitRule{
		groupAuth:   {Rate: 1, Burst: 10},
		groupIngest: {Rate: 0.5, Burst: 10},
		groupAPI:    {Rate: 10, Burst: 40},
	}
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	rules := deps.RateRules
	if rules == nil {
		rules = DefaultRateRules()
	}
	limit := middleware.RateLimit(middleware.RateLimitConfig{
		Rules:        rules,
		DefaultGroup: groupAPI,
		GroupFor:     rateGroup,
	})

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService()
	}
	r.GET("/health", healthHandler(healthSvc))
	r.GET("/metrics", metrics.Handler())
	if deps.FilesDir != "" {
		r.Static("/files", deps.FilesDir)
	}

	revoker := deps.Revoker
	if revoker == nil {
		revoker = auth.NopRevoker{}
	}

	api := r.Group("/api/v1")
	api.GET("/health", healthHandler(healthSvc))

	public := api.Group("")
	public.Use(limit)
	protected := api.Group("")
	protected.Use(middleware.Auth(deps.Tokens, revoker), limit)

	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(public, protected)
	}
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(protected)
	}
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(public)
	}

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "route not found")
	})

	return r
}

func healthHandler(svc *health.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := svc.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	}
}

func rateGroup(c *gin.Context) string {
	path := c.FullPath()
	switch {
	case strings.HasPrefix(path, "/api/v1/users/") && c.Request.Method == http.MethodPost:
		return groupAuth
	case strings.HasPrefix(path, "/api/v1/auth/"):
		return groupAuth
	case path == "/api/v1/documents" && c.Request.Method == http.MethodPost,
		path == "/api/v1/documents/translate-text":
		return groupIngest
	default:
		return groupAPI
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
