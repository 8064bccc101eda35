package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/adpricing/internal/audit"
	auditdomain "github.com/smallbiznis/adpricing/internal/audit/domain"
	"github.com/smallbiznis/adpricing/internal/campaign"
	campaigndomain "github.com/smallbiznis/adpricing/internal/campaign/domain"
	"github.com/smallbiznis/adpricing/internal/config"
	"github.com/smallbiznis/adpricing/internal/observability"
	obsmiddleware "github.com/smallbiznis/adpricing/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/adpricing/internal/observability/metrics"
	obstracing "github.com/smallbiznis/adpricing/internal/observability/tracing"
	"github.com/smallbiznis/adpricing/internal/pricing"
	pricingdomain "github.com/smallbiznis/adpricing/internal/pricing/domain"
	"github.com/smallbiznis/adpricing/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	audit.Module,
	pricing.Module,
	campaign.Module,
	ratelimit.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
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
	engine      *gin.Engine
	cfg         config.Config
	quoteSvc    pricingdomain.QuoteService
	versionSvc  pricingdomain.VersionService
	campaignSvc campaigndomain.Service
	auditSvc    auditdomain.Service
	guard       *ratelimit.PricingGuard
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	QuoteSvc    pricingdomain.QuoteService
	VersionSvc  pricingdomain.VersionService
	CampaignSvc campaigndomain.Service
	AuditSvc    auditdomain.Service
	Guard       *ratelimit.PricingGuard `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		quoteSvc:    p.QuoteSvc,
		versionSvc:  p.VersionSvc,
		campaignSvc: p.CampaignSvc,
		auditSvc:    p.AuditSvc,
		guard:       p.Guard,
	}

	svc.registerAPIRoutes()
	svc.registerAdminRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Pricing --------
	api.POST("/pricing/calculate", s.QuoteRateLimit(), s.CalculatePrice)
	api.GET("/pricing/config", s.GetCurrentPricingConfig)

	// -------- Campaigns --------
	api.POST("/campaigns", s.QuoteRateLimit(), s.CreateCampaign)
	api.GET("/campaigns", s.ListCampaigns)
	api.GET("/campaigns/:id", s.GetCampaignByID)
	api.GET("/campaigns/:id/pricing", s.GetCampaignPricing)
}

func (s *Server) registerAdminRoutes() {
	manage := s.engine.Group("/api/pricing", AuditContext())

	manage.POST("/manage", s.CreatePricingVersion)
	manage.PUT("/manage/:id", s.UpdatePricingVersion)
	manage.POST("/manage/publish", s.PublishPricingVersion)
	manage.POST("/manage/publish-now", s.PublishPricingVersionNow)
	manage.GET("/versions", s.ListPricingVersions)
	manage.GET("/versions/:id", s.GetPricingVersionByID)

	admin := s.engine.Group("/api/admin", AuditContext())
	admin.POST("/pricing/simulate", s.SimulatePrice)
	admin.GET("/audit-logs", s.ListAuditLogs)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
