package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shegerhomes/gebeya/internal/appointment"
	appointmentdomain "github.com/shegerhomes/gebeya/internal/appointment/domain"
	"github.com/shegerhomes/gebeya/internal/catalog"
	catalogdomain "github.com/shegerhomes/gebeya/internal/catalog/domain"
	"github.com/shegerhomes/gebeya/internal/config"
	"github.com/shegerhomes/gebeya/internal/entitlement"
	entitlementdomain "github.com/shegerhomes/gebeya/internal/entitlement/domain"
	"github.com/shegerhomes/gebeya/internal/events"
	"github.com/shegerhomes/gebeya/internal/listing"
	listingdomain "github.com/shegerhomes/gebeya/internal/listing/domain"
	"github.com/shegerhomes/gebeya/internal/observability"
	obsmiddleware "github.com/shegerhomes/gebeya/internal/observability/logger"
	obsmetrics "github.com/shegerhomes/gebeya/internal/observability/metrics"
	obstracing "github.com/shegerhomes/gebeya/internal/observability/tracing"
	"github.com/shegerhomes/gebeya/internal/ratelimit"
	"github.com/shegerhomes/gebeya/internal/reconciliation"
	reconciliationdomain "github.com/shegerhomes/gebeya/internal/reconciliation/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	events.Module,
	catalog.Module,
	entitlement.Module,
	reconciliation.Module,
	listing.Module,
	appointment.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
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

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
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
	engine            *gin.Engine
	cfg               config.Config
	db                *gorm.DB
	genID             *snowflake.Node
	catalogSvc        catalogdomain.Service
	entitlementSvc    entitlementdomain.Service
	reconciliationSvc reconciliationdomain.Service
	listingSvc        listingdomain.Service
	appointmentSvc    appointmentdomain.Service
	callbackLimiter   *ratelimit.CallbackLimiter
	obsMetrics        *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin               *gin.Engine
	Cfg               config.Config
	DB                *gorm.DB
	GenID             *snowflake.Node
	CatalogSvc        catalogdomain.Service
	EntitlementSvc    entitlementdomain.Service
	ReconciliationSvc reconciliationdomain.Service
	ListingSvc        listingdomain.Service
	AppointmentSvc    appointmentdomain.Service
	CallbackLimiter   *ratelimit.CallbackLimiter `optional:"true"`
	ObsMetrics        *obsmetrics.Metrics        `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:            p.Gin,
		cfg:               p.Cfg,
		db:                p.DB,
		genID:             p.GenID,
		catalogSvc:        p.CatalogSvc,
		entitlementSvc:    p.EntitlementSvc,
		reconciliationSvc: p.ReconciliationSvc,
		listingSvc:        p.ListingSvc,
		appointmentSvc:    p.AppointmentSvc,
		callbackLimiter:   p.CallbackLimiter,
		obsMetrics:        p.ObsMetrics,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.ActorMiddleware())

	api.GET("/packages", s.ListPackages)
	api.GET("/packages/:id", s.GetPackageByID)
	api.POST("/packages", s.CreatePackage)
	api.PATCH("/packages/:id", s.UpdatePackage)
	api.DELETE("/packages/:id", s.ArchivePackage)

	api.POST("/payments/reconcile", s.ReconcilePayment)
	api.POST("/payments/callback/:provider", s.PaymentCallbackRateLimit(), s.PaymentCallback)

	api.GET("/entitlements/summary", s.RequireCompany(), s.EntitlementSummary)
	api.GET("/entitlements/grants", s.RequireCompany(), s.ListEntitlementGrants)

	api.GET("/properties", s.ListProperties)
	api.GET("/properties/:id", s.GetPropertyByID)
	api.POST("/properties", s.RequireCompany(), s.CreateProperty)
	api.PATCH("/properties/:id", s.RequireCompany(), s.UpdateProperty)
	api.DELETE("/properties/:id", s.RequireCompany(), s.RemoveProperty)
	api.POST("/properties/:id/activate", s.RequireCompany(), s.ActivateProperty)
	api.POST("/properties/:id/deactivate", s.RequireCompany(), s.DeactivateProperty)

	api.POST("/appointments", s.RequireCustomer(), s.CreateAppointment)
	api.GET("/appointments", s.RequireCompany(), s.ListCompanyAppointments)
	api.GET("/appointments/me", s.RequireCustomer(), s.ListMyAppointments)
	api.PATCH("/appointments/:id", s.RequireCompany(), s.SetAppointmentStatus)
	api.DELETE("/appointments/:id", s.RequireCustomer(), s.DeleteAppointment)
}
