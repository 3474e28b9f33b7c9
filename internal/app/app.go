// Package app wires stores, services and HTTP routes into one server.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"leadcompass/internal/config"
	"leadcompass/internal/domain/activity"
	"leadcompass/internal/domain/auth"
	"leadcompass/internal/domain/lead"
	"leadcompass/internal/domain/profile"
	"leadcompass/internal/middleware"
	"leadcompass/internal/modules/leads"
	"leadcompass/internal/modules/reports"
	"leadcompass/internal/pkg/jwt"
	"leadcompass/internal/pkg/logger"
	"leadcompass/internal/pkg/metrics"
)

type App struct {
	Router   *gin.Engine
	Leads    *lead.Repository
	Profiles *profile.Service
	Auth     *auth.Service
	Hub      *activity.Hub
	Sweeper  *activity.Sweeper

	db  *gorm.DB
	log logger.Logger
}

// New builds the application. metricsHandler may be nil to leave /metrics unmounted.
func New(cfg *config.Config, db *gorm.DB, log logger.Logger, m *metrics.Metrics, metricsHandler http.Handler) (*App, error) {
	hub := activity.NewHub(m)
	activityStore := activity.NewStore(db, hub, m)

	profileService := profile.NewService(profile.NewRepository(db), log.With("component", "profiles"))
	authService := auth.NewService(profileService, jwt.New(cfg.JWTSecret, cfg.JWTAccessTTL), m, log.With("component", "auth"))

	leadRepo := lead.NewRepository(lead.NewGormStore(db, activityStore), lead.Options{
		BatchSize:    cfg.ImportBatchSize,
		FetchTimeout: cfg.LeadFetchTimeout,
		Roster:       profileService,
		Verifier:     authService,
		Logger:       log.With("component", "leads"),
		Metrics:      m,
	})

	activityService := activity.NewService(activityStore, leadRepo, cfg.ActivityWindow, log.With("component", "activity"))
	sweeper := activity.NewSweeper(activityService, log.With("component", "sweeper"))
	if err := sweeper.Schedule(cfg.ActivitySweepSpec); err != nil {
		return nil, fmt.Errorf("schedule activity sweep %q: %w", cfg.ActivitySweepSpec, err)
	}

	if config.IsProdLike(cfg.AppEnv) {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.ErrorLogger(log))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	if m != nil {
		r.Use(m.Middleware())
	}

	a := &App{
		Router:   r,
		Leads:    leadRepo,
		Profiles: profileService,
		Auth:     authService,
		Hub:      hub,
		Sweeper:  sweeper,
		db:       db,
		log:      log,
	}

	r.GET("/health", a.health)
	if metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(metricsHandler))
	}

	v1 := r.Group("/api/v1")
	{
		authHandler := auth.NewHandler(authService, profileService)
		loginLimiter := middleware.NewRateLimiter(cfg.LoginRatePerMinute, cfg.LoginBurst)
		authHandler.RegisterPublicRoutes(v1, loginLimiter.Middleware())

		ws := activity.NewWSHandler(hub, authService, cfg.CORSAllowedOrigins, log.With("component", "ws"))
		activity.RegisterWSRoutes(v1, ws)

		protected := v1.Group("")
		protected.Use(middleware.SessionAuth(authService))
		{
			authHandler.RegisterProtectedRoutes(protected)
			leads.RegisterRoutes(protected, leads.NewHandler(leadRepo, m, log.With("component", "leads_api")))
			reports.RegisterRoutes(protected, reports.NewHandler(leadRepo, profileService, m))
			activity.RegisterRoutes(protected.Group("", middleware.CEOOnly()), activity.NewHandler(activityService))
			profile.RegisterRoutes(protected, profile.NewHandler(profileService))
		}
	}

	return a, nil
}

// DefaultMetricsHandler serves the default Prometheus registry
func DefaultMetricsHandler() http.Handler {
	return promhttp.Handler()
}

// Warm loads the lead working set so the first request does not pay for it.
func (a *App) Warm(ctx context.Context) {
	if _, err := a.Leads.ListAll(ctx); err != nil {
		a.log.Warn("initial lead load failed", "error", err)
	}
}

func (a *App) health(c *gin.Context) {
	sqlDB, err := a.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": "down"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"database":    "up",
		"subscribers": a.Hub.Subscribers(),
	})
}
