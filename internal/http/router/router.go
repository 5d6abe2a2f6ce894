package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/worklance/worklance-backend/internal/config"
	"github.com/worklance/worklance-backend/internal/http/handlers"
	"github.com/worklance/worklance-backend/internal/http/middleware"
	"github.com/worklance/worklance-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	jobHandler *handlers.JobHandler,
	bidHandler *handlers.BidHandler,
	milestoneHandler *handlers.MilestoneHandler,
	ledgerHandler *handlers.LedgerHandler,
	withdrawalHandler *handlers.WithdrawalHandler,
	reconcilerHandler *handlers.ReconcilerHandler,
	notificationHandler *handlers.NotificationHandler,
	deliverableHandler *handlers.DeliverableHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	r.StaticFS("/deliverables", http.Dir(cfg.DeliverableStorage))

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authRateLimit := middleware.RateLimitMiddleware(5, cfg.RateLimitPeriod)
	authGroup.Use(authRateLimit)
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
	}

	protectedAuth := api.Group("/auth")
	protectedAuth.Use(middleware.AuthMiddleware(tokenManager))
	{
		protectedAuth.POST("/logout", authHandler.Logout)
	}

	// Публичные маршруты
	api.GET("/ws", wsHandler.Handle)
	api.GET("/jobs/:id", middleware.UUIDValidator("id"), jobHandler.Get)
	api.GET("/jobs/:id/milestones", middleware.UUIDValidator("id"), milestoneHandler.List)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/notifications", notificationHandler.List)
		protected.GET("/notifications/unread/count", notificationHandler.CountUnread)
		protected.POST("/notifications/:id/read", middleware.UUIDValidator("id"), notificationHandler.MarkAsRead)
		protected.POST("/notifications/read-all", notificationHandler.MarkAllAsRead)

		protected.POST("/jobs", middleware.RequireRole("client"), jobHandler.Create)
		protected.GET("/jobs/my", jobHandler.ListMy)
		protected.DELETE("/jobs/:id", middleware.UUIDValidator("id"), jobHandler.Delete)

		bidRateLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)
		protected.POST("/jobs/:id/bids", middleware.UUIDValidator("id"), bidRateLimit, jobHandler.SubmitBid)
		protected.GET("/jobs/:id/bids", middleware.UUIDValidator("id"), jobHandler.ListBids)
		protected.POST("/jobs/:id/accept", middleware.UUIDValidator("id"), jobHandler.AcceptBid)
		protected.GET("/jobs/:id/trade", middleware.UUIDValidator("id"), jobHandler.GetTrade)
		protected.POST("/jobs/:id/deposit", middleware.UUIDValidator("id"), jobHandler.ConfirmDeposit)
		protected.POST("/jobs/:id/milestones", middleware.UUIDValidator("id"), milestoneHandler.Plan)

		protected.POST("/bids/:id/shortlist", middleware.UUIDValidator("id"), bidHandler.Shortlist)
		protected.POST("/bids/:id/reject", middleware.UUIDValidator("id"), bidHandler.Reject)
		protected.POST("/bids/:id/withdraw", middleware.UUIDValidator("id"), bidHandler.Withdraw)

		protected.GET("/milestones/:id", middleware.UUIDValidator("id"), milestoneHandler.Get)
		protected.POST("/milestones/:id/start", middleware.UUIDValidator("id"), milestoneHandler.Start)
		protected.POST("/milestones/:id/submit", middleware.UUIDValidator("id"), milestoneHandler.Submit)
		protected.POST("/milestones/:id/approve", middleware.UUIDValidator("id"), milestoneHandler.Approve)
		protected.POST("/milestones/:id/dispute", middleware.UUIDValidator("id"), milestoneHandler.Dispute)

		protected.GET("/earnings", ledgerHandler.ListEarnings)
		protected.GET("/earnings/balance", ledgerHandler.GetBalance)

		protected.POST("/withdrawals", middleware.RequireRole("freelancer"), withdrawalHandler.Request)
		protected.GET("/withdrawals", withdrawalHandler.List)
		protected.GET("/withdrawals/:id", middleware.UUIDValidator("id"), withdrawalHandler.Get)

		protected.POST("/deliverables", deliverableHandler.Upload)
	}

	// Внутренние маршруты платёжного оператора и сверки
	internal := r.Group("/internal")
	internal.Use(middleware.InternalTokenMiddleware(cfg.InternalToken))
	{
		internal.POST("/withdrawals/:id/process", middleware.UUIDValidator("id"), withdrawalHandler.StartProcessing)
		internal.POST("/withdrawals/:id/complete", middleware.UUIDValidator("id"), withdrawalHandler.Complete)
		internal.POST("/withdrawals/:id/reject", middleware.UUIDValidator("id"), withdrawalHandler.Reject)
		internal.POST("/reconciler/run", reconcilerHandler.Run)
	}

	return r
}
