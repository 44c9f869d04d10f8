// Package server exposes the engine's operational HTTP surface: health,
// Prometheus metrics, an idempotent inbox ingest endpoint, and internal
// read routes over the audit trail and notifications.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	auditdomain "github.com/smallbiznis/canvass/internal/audit/domain"
	candidaterepo "github.com/smallbiznis/canvass/internal/candidate/repository"
	"github.com/smallbiznis/canvass/internal/clock"
	"github.com/smallbiznis/canvass/internal/config"
	endorsementrepo "github.com/smallbiznis/canvass/internal/endorsement/repository"
	notificationdomain "github.com/smallbiznis/canvass/internal/notification/domain"
	"github.com/smallbiznis/canvass/internal/rollup"
	"github.com/smallbiznis/canvass/internal/store"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config) *gin.Engine {
	return NewEngine(cfg)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	genID           *snowflake.Node
	clock           clock.Clock
	store           store.Store
	auditSvc        auditdomain.Service
	notificationSvc notificationdomain.Service
	rollupSvc       *rollup.Service
	candidateRepo   candidaterepo.Repository
	endorsementRepo endorsementrepo.Repository
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	GenID           *snowflake.Node
	Clock           clock.Clock
	Store           store.Store
	AuditSvc        auditdomain.Service
	NotificationSvc notificationdomain.Service
	RollupSvc       *rollup.Service
	CandidateRepo   candidaterepo.Repository
	EndorsementRepo endorsementrepo.Repository
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		genID:           p.GenID,
		clock:           p.Clock,
		store:           p.Store,
		auditSvc:        p.AuditSvc,
		notificationSvc: p.NotificationSvc,
		rollupSvc:       p.RollupSvc,
		candidateRepo:   p.CandidateRepo,
		endorsementRepo: p.EndorsementRepo,
	}

	svc.registerInternalRoutes()

	return svc
}

func (s *Server) registerInternalRoutes() {
	internal := s.engine.Group("/internal/v1")
	{
		internal.GET("/readyz", s.Readyz)
		internal.POST("/events", s.IngestEvent)
		internal.GET("/audit-records", s.ListAuditRecords)
		internal.GET("/notifications", s.ListNotifications)
		internal.GET("/candidates/:id/stats", s.GetCandidateStats)
		internal.POST("/candidates/:id/profile-views", s.RecordProfileViews)
	}
}

// Readyz checks the database connection so orchestrators only route once
// the engine can actually commit batches.
func (s *Server) Readyz(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err != nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
