package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"

	"github.com/ignatzorin/freelance-marketplace/internal/config"
	"github.com/ignatzorin/freelance-marketplace/internal/http/handlers"
	"github.com/ignatzorin/freelance-marketplace/internal/http/middleware"
	"github.com/ignatzorin/freelance-marketplace/internal/http/response"
	"github.com/ignatzorin/freelance-marketplace/internal/pkg/apperror"
)

// Handlers все HTTP обработчики приложения.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Freelance    *handlers.FreelanceHandler
	Project      *handlers.ProjectHandler
	Review       *handlers.ReviewHandler
	Payment      *handlers.PaymentHandler
	Notification *handlers.NotificationHandler
	Activity     *handlers.ActivityHandler
	Catalog      *handlers.CatalogHandler
	Dashboard    *handlers.DashboardHandler
	Health       *handlers.HealthHandler
	WS           *handlers.WSHandler
}

// Deps зависимости, общие для middleware.
type Deps struct {
	Tokens       middleware.AccessParser
	Webhooks     middleware.SignatureVerifier
	LimiterStore limiter.Store
}

func SetupRouter(cfg *config.Config, h Handlers, deps Deps) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.AccessLog(),
		middleware.Recovery(),
		middleware.CORSMiddleware(cfg.AllowedOrigins),
	)
	r.NoRoute(func(c *gin.Context) {
		response.Error(c, apperror.NotFound("маршрут не найден"))
	})

	r.GET("/health", h.Health.Health)
	r.StaticFS("/media", http.Dir(cfg.MediaStoragePath))

	limit := func(name string) gin.HandlerFunc {
		return middleware.RateLimitMiddleware(deps.LimiterStore, name, cfg.RateLimitLimit, cfg.RateLimitPeriod)
	}
	auth := middleware.AuthMiddleware(deps.Tokens)
	id := middleware.UUIDValidator("id")

	v1 := r.Group("/v1")

	// Аутентификация
	v1.POST("/register", limit("register"), h.Auth.Register)
	v1.POST("/login", limit("login"), h.Auth.Login)
	v1.POST("/verify-email", limit("verify"), h.Auth.VerifyEmail)
	v1.POST("/resend-verification", limit("verify"), h.Auth.ResendVerification)
	v1.POST("/refresh", limit("refresh"), h.Auth.Refresh)
	v1.POST("/logout", h.Auth.Logout)

	me := v1.Group("/me", auth)
	{
		me.GET("", h.Auth.Me)
		me.PUT("", h.Auth.UpdateMe)
		me.PUT("/password", h.Auth.ChangePassword)
	}

	// Публичный каталог
	v1.GET("/categories", h.Catalog.Categories)
	v1.GET("/categories/stats", h.Catalog.CategoryStats)
	v1.GET("/categories/:id", id, h.Catalog.Category)
	v1.POST("/categories", auth, h.Catalog.CreateCategory)
	v1.GET("/stats/global", h.Catalog.GlobalStats)
	v1.GET("/dashboard", auth, h.Dashboard.GetDashboard)

	freelances := v1.Group("/freelances")
	{
		freelances.GET("", h.Freelance.List)
		freelances.GET("/top-rated", h.Freelance.TopRated)
		freelances.GET("/:id", id, h.Freelance.Details)
		freelances.GET("/:id/reviews", id, h.Review.ListForFreelance)
	}

	// Собственный профиль фрилансера
	own := v1.Group("/freelance", auth)
	{
		own.PUT("/profile", h.Freelance.UpdateProfile)
		own.POST("/competences", h.Freelance.AddCompetence)
		own.DELETE("/competences/:id", id, h.Freelance.DeleteCompetence)
		own.POST("/portfolios", h.Freelance.AddPortfolio)
		own.DELETE("/portfolios/:id", id, h.Freelance.DeletePortfolio)
	}

	projects := v1.Group("/projects")
	{
		projects.GET("", h.Project.List)
		projects.GET("/mine", auth, h.Project.ListMine)
		projects.GET("/:id", id, h.Project.Get)
		projects.POST("", auth, h.Project.Create)
		projects.PUT("/:id", auth, id, h.Project.Update)
		projects.DELETE("/:id", auth, id, h.Project.Delete)
		projects.POST("/:id/close", auth, id, h.Project.Close)
		projects.PATCH("/:id/status", auth, id, h.Project.ChangeStatus)
	}

	reviews := v1.Group("/reviews", auth)
	{
		reviews.POST("", h.Review.Create)
		reviews.GET("/mine", h.Review.ListMine)
		reviews.PUT("/:id", id, h.Review.Update)
		reviews.DELETE("/:id", id, h.Review.Delete)
		reviews.POST("/:id/report", id, h.Review.Report)
	}

	// Webhook провайдера: без bearer токена, только подпись.
	v1.POST("/payments/webhook", webhookRateLimit(cfg, deps.LimiterStore), middleware.WebhookSignature(deps.Webhooks), h.Payment.Webhook)

	payments := v1.Group("/payments", auth)
	{
		payments.GET("/plans", h.Payment.Plans)
		payments.GET("", h.Payment.List)
		payments.POST("", h.Payment.Initiate)
		payments.GET("/:id", id, h.Payment.Get)
	}

	notifications := v1.Group("/notifications", auth)
	{
		notifications.GET("", h.Notification.List)
		notifications.GET("/count-unread", h.Notification.CountUnread)
		notifications.PUT("/lire-tout", h.Notification.MarkAllRead)
		notifications.PUT("/:id/lire", id, h.Notification.MarkRead)
		notifications.DELETE("/:id", id, h.Notification.Delete)
		notifications.POST("/delete-multiple", h.Notification.DeleteMany)
	}

	activities := v1.Group("/activities", auth)
	{
		activities.GET("", h.Activity.List)
		activities.POST("/mark-all-read", h.Activity.MarkAllRead)
		activities.POST("/:id/mark-read", id, h.Activity.MarkRead)
	}

	admin := v1.Group("/admin", auth)
	{
		admin.GET("/users", h.Auth.ListUsers)
		admin.PATCH("/users/:id/status", id, h.Auth.UpdateUserStatus)
		admin.POST("/payments/:id/validate", id, h.Payment.AdminValidate)
		admin.POST("/payments/:id/fail", id, h.Payment.AdminFail)
		admin.POST("/freelances/:id/recompute-rating", id, h.Review.RecomputeRating)
	}

	v1.GET("/ws", middleware.QueryTokenAuth(deps.Tokens), h.WS.Handle)

	return r
}

// webhookRateLimit отдельный счётчик для платёжного провайдера: пачка подтверждений
// с одного IP не должна упираться в лимит входа.
func webhookRateLimit(cfg *config.Config, store limiter.Store) gin.HandlerFunc {
	return middleware.RateLimitMiddleware(store, "webhook", cfg.Payment.WebhookRateLimit, cfg.RateLimitPeriod)
}
