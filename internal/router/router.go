package router

import (
	"time"

	"showtix/internal/config"
	"showtix/internal/handler"
	"showtix/internal/infra"
	"showtix/internal/middleware"
	"showtix/internal/model"
	"showtix/internal/notify"
	"showtix/internal/repository"
	"showtix/internal/service"
	"showtix/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, mailCB *infra.CircuitBreaker, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	notifier := notify.NewPublisher(rdb)

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	allocationHistoryRepo := repository.NewAllocationHistoryRepository(db)
	remittanceHistoryRepo := repository.NewRemittanceHistoryRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	scheduleSvc := service.NewScheduleService(scheduleRepo, ticketRepo, notifier)
	allocationSvc := service.NewAllocationService(ticketRepo, allocationHistoryRepo, notifier)
	remittanceSvc := service.NewRemittanceService(ticketRepo, remittanceHistoryRepo, scheduleRepo, notifier, dispatcher, cfg.UnremitPolicy)
	reportSvc := service.NewReportService(scheduleRepo, ticketRepo, userRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	schedulesH := handler.NewSchedulesHandler(scheduleSvc)
	ticketsH := handler.NewTicketsHandler(ticketRepo)
	allocationsH := handler.NewAllocationsHandler(allocationSvc)
	remittancesH := handler.NewRemittancesHandler(remittanceSvc)
	reportsH := handler.NewReportsHandler(reportSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, mailCB))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		staff := middleware.RequireRole(model.RoleTrainer, model.RoleHead)
		anyRole := middleware.RequireRole(model.RoleTrainer, model.RoleHead, model.RoleDistributor)

		// Schedules — pool provisioning is staff-only, reads are open to all roles
		v1.POST("/schedules", staff, schedulesH.Provision)
		v1.GET("/schedules", anyRole, schedulesH.List)
		v1.GET("/schedules/:id", anyRole, schedulesH.Get)

		// Pool snapshot and per-schedule histories
		v1.GET("/schedules/:id/tickets", anyRole, ticketsH.Snapshot)
		v1.GET("/schedules/:id/allocations", anyRole, allocationsH.History)
		v1.GET("/schedules/:id/remittances", anyRole, remittancesH.History)

		// Lifecycle mutations — staff only
		v1.POST("/allocations", staff, allocationsH.Allocate)
		v1.POST("/allocations/return", staff, allocationsH.Unallocate)
		v1.POST("/remittances", staff, remittancesH.Remit)
		v1.POST("/remittances/reverse", staff, remittancesH.Unremit)

		// Reports — recomputed per call
		reports := v1.Group("/reports", staff)
		{
			reports.GET("/schedules/:id", reportsH.ScheduleReport)
			reports.GET("/schedules/:id/distributors", reportsH.DistributorReport)
			reports.GET("/genres/:genre", reportsH.GenreReport)
		}

		// Users — head only
		users := v1.Group("/users", middleware.RequireRole(model.RoleHead))
		{
			users.POST("", usersH.Create)
		}
		v1.GET("/users/distributors", staff, usersH.ListDistributors)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
