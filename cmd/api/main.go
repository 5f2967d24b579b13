package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/terra-erp-api/api/swagger"
	"github.com/noah-isme/terra-erp-api/internal/handler"
	"github.com/noah-isme/terra-erp-api/internal/middleware"
	"github.com/noah-isme/terra-erp-api/internal/models"
	"github.com/noah-isme/terra-erp-api/internal/repository"
	"github.com/noah-isme/terra-erp-api/internal/service"
	"github.com/noah-isme/terra-erp-api/pkg/cache"
	"github.com/noah-isme/terra-erp-api/pkg/config"
	"github.com/noah-isme/terra-erp-api/pkg/database"
	"github.com/noah-isme/terra-erp-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/terra-erp-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/terra-erp-api/pkg/middleware/requestid"
)

// @title Terra ERP API
// @version 0.1.0
// @description Accounting back end with approval-gated mutations and double-entry journals
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var cacheRepo *repository.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, continuing without cache", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close()
		}
	}

	userRepo := repository.NewUserRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	journalRepo := repository.NewJournalRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	plotRepo := repository.NewPlotRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, cfg.Cache.Enabled, logr)

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "terra-erp-api",
	})

	appliers := map[models.ApprovalEntity]service.ChangeApplier{
		models.EntityProject:      service.NewProjectApplier(projectRepo, logr),
		models.EntityPlot:         service.NewPlotApplier(plotRepo, projectRepo, logr),
		models.EntityCustomer:     service.NewCustomerApplier(customerRepo, logr),
		models.EntitySupplier:     service.NewSupplierApplier(supplierRepo, logr),
		models.EntityCashPayment:  service.NewPaymentApplier(paymentRepo, models.PaymentKindCash, logr),
		models.EntityBankPayment:  service.NewPaymentApplier(paymentRepo, models.PaymentKindBank, logr),
		models.EntitySalesInvoice: service.NewInvoiceApplier(invoiceRepo, customerRepo, logr),
		models.EntityUser:         service.NewUserApplier(userRepo, logr),
	}

	approvalSvc := service.NewApprovalService(approvalRepo, userRepo, logr,
		service.WithAppliers(appliers),
		service.WithStatsCache(cacheSvc, cfg.Approvals.StatsTTL),
		service.WithApprovalMetrics(metricsSvc),
	)
	dispatchSvc := service.NewDispatchService(appliers, approvalSvc, userRepo, logr)
	journalSvc, err := service.NewJournalService(journalRepo, userRepo, cfg.Journal.BalanceTolerance, metricsSvc, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to init journal service", "error", err)
	}
	directorySvc := service.NewDirectoryService(projectRepo, plotRepo, customerRepo, supplierRepo, paymentRepo, invoiceRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	approvalHandler := handler.NewApprovalHandler(approvalSvc)
	journalHandler := handler.NewJournalHandler(journalSvc)
	directoryHandler := handler.NewDirectoryHandler(directorySvc)
	userHandler := handler.NewUserHandler(userRepo)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.POST("/auth/logout", authHandler.Logout)
	authed.POST("/auth/change-password", authHandler.ChangePassword)
	authed.GET("/auth/me", authHandler.Me)

	if cfg.Approvals.Enabled {
		approvals := authed.Group("/approvals")
		approvals.POST("", approvalHandler.Submit)
		approvals.GET("", approvalHandler.List)
		approvals.GET("/:id", approvalHandler.Get)
		approvals.DELETE("/:id", approvalHandler.Delete)
		approvals.GET("/stats", middleware.RequirePrivileged(), approvalHandler.Stats)
		approvals.POST("/:id/approve", middleware.RequirePrivileged(), approvalHandler.Approve)
		approvals.POST("/:id/reject", middleware.RequirePrivileged(), approvalHandler.Reject)
	}

	if cfg.Journal.Enabled {
		journal := authed.Group("/journal-entries")
		journal.GET("", journalHandler.List)
		journal.GET("/:id", journalHandler.Get)
		journal.POST("/check-balance", journalHandler.CheckBalance)
		journal.POST("", middleware.RequirePrivileged(),
			middleware.Audit(userRepo, models.AuditActionJournalPost, "journal_entry"), journalHandler.Create)
	}

	registerEntityRoutes(authed, "/projects", models.EntityProject, dispatchSvc, directoryHandler.ListProjects, directoryHandler.GetProject)
	registerEntityRoutes(authed, "/plots", models.EntityPlot, dispatchSvc, directoryHandler.ListPlots, directoryHandler.GetPlot)
	registerEntityRoutes(authed, "/customers", models.EntityCustomer, dispatchSvc, directoryHandler.ListCustomers, directoryHandler.GetCustomer)
	registerEntityRoutes(authed, "/suppliers", models.EntitySupplier, dispatchSvc, directoryHandler.ListSuppliers, directoryHandler.GetSupplier)
	registerEntityRoutes(authed, "/cash-payments", models.EntityCashPayment, dispatchSvc, directoryHandler.ListPayments, directoryHandler.GetPayment)
	registerEntityRoutes(authed, "/bank-payments", models.EntityBankPayment, dispatchSvc, directoryHandler.ListPayments, directoryHandler.GetPayment)
	registerEntityRoutes(authed, "/sales-invoices", models.EntitySalesInvoice, dispatchSvc, directoryHandler.ListInvoices, directoryHandler.GetInvoice)

	users := authed.Group("/users")
	users.GET("", middleware.RequirePrivileged(), userHandler.List)
	users.GET("/:id", middleware.RequirePrivileged(), userHandler.Get)
	userWrites := handler.NewEntityWriteHandler(models.EntityUser, dispatchSvc)
	users.POST("", userWrites.Create)
	users.PUT("/:id", userWrites.Update)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func registerEntityRoutes(group *gin.RouterGroup, path string, entity models.ApprovalEntity, dispatcher *service.DispatchService, list, get gin.HandlerFunc) {
	writes := handler.NewEntityWriteHandler(entity, dispatcher)
	g := group.Group(path)
	g.GET("", list)
	g.GET("/:id", get)
	g.POST("", writes.Create)
	g.PUT("/:id", writes.Update)
}
