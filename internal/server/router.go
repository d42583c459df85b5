package server

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"analysis-console/internal/analysis"
	"analysis-console/internal/backend"
	"analysis-console/internal/console"
	"analysis-console/internal/history"
	"analysis-console/internal/shared/config"
	"analysis-console/internal/shared/metrics"
	"analysis-console/internal/shared/server/middleware"
	"analysis-console/internal/shared/server/respond"
	"analysis-console/internal/shared/session"
	"analysis-console/internal/shared/storage/db"
	localstore "analysis-console/internal/shared/storage/object/local"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.SetHTMLTemplate(console.Templates())

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		session.Middleware(),
		middleware.RateLimit(rateLimitConfig()),
	)

	// Dependencies
	store := localstore.New(cfg.LocalStoreDir)
	var sqlDB *sql.DB
	if cfg.DatabaseURL != "" {
		dbConn, err := db.Connect(context.Background(), cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err != nil {
			log.Printf("failed to connect database, falling back to memory: %v", err)
		} else {
			if err := db.RunMigrations(context.Background(), dbConn); err != nil {
				log.Printf("failed to run migrations, falling back to memory: %v", err)
				dbConn = nil
			}
		}
		sqlDB = dbConn
	}

	var historyRepo history.Repo
	if sqlDB != nil {
		historyRepo = &history.PGRepo{DB: sqlDB}
	} else {
		historyRepo = history.NewMemoryRepo()
	}
	historySvc := history.NewService(historyRepo)

	backendClient := backend.New(cfg.BackendBaseURL, cfg.BackendTimeout)
	analysisSvc := analysis.NewService(backendClient, historySvc, cfg.ProgressPollInterval, cfg.AnalyzeTimeout)
	handler := console.NewHandler(analysisSvc, backendClient, backendClient, historySvc, store, cfg.PublicBaseURL)
	handler.RegisterRoutes(r)

	r.GET("/healthz", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/metrics", metrics.Handler())

	return r
}

func rateLimitConfig() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			middleware.RateLimitGroupProgress:    {Rate: 2, Burst: 5},
			middleware.RateLimitGroupDiagnostics: {Rate: 0.5, Burst: 2},
		},
		GroupFor: func(c *gin.Context) string {
			path := c.Request.URL.Path
			switch {
			case strings.HasPrefix(path, "/api/progress/"):
				return middleware.RateLimitGroupProgress
			case strings.HasPrefix(path, "/api/diagnostics/"):
				return middleware.RateLimitGroupDiagnostics
			default:
				return ""
			}
		},
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
