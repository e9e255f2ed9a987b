package app

import (
	"rewind_backend/docs"
	"rewind_backend/internal/middleware"
	"rewind_backend/internal/util"
	"rewind_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, s *services) {
	docs.SwaggerInfo.BasePath = util.APIPrefix
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.HealthCheck)

	auth := middleware.AuthMiddleware(a.verifier, s.user)

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要登录的路由，付费接口由订阅中间件按路由模板拦截
	authGroup := router.Group(util.APIPrefix)
	authGroup.Use(auth, middleware.SubscriptionRequired(a.premiumPaths, s.subscription))
	{
		a.registerPracticeRoutes(authGroup, c)
		a.registerRevisionRoutes(authGroup, c)
		a.registerBillingRoutes(authGroup, c)
	}

	// 3. 本地存储模式下的录音直传
	if s.storage.Local() != nil {
		router.PUT("/uploads/*key", auth, c.recording.LocalUpload)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group(util.APIPrefix)
	{
		public.GET("/questions", c.question.List)
		public.GET("/questions/:id", c.question.Get)
		public.GET("/patterns", c.question.Patterns)
		public.GET("/payments/plans", c.payment.Plans)

		// 支付网关回调，签名校验在控制器内完成
		public.POST("/webhooks/razorpay", c.webhook.Razorpay)
	}
}

func (a *App) registerPracticeRoutes(group *gin.RouterGroup, c *controllers) {
	userQuestions := group.Group("/user-questions")
	{
		userQuestions.GET("", c.userQuestion.List)
		userQuestions.GET("/status-map", c.userQuestion.StatusMap)
		userQuestions.GET("/activity", c.userQuestion.Activity)
		userQuestions.DELETE("/reset", c.userQuestion.Reset)
		userQuestions.POST("/:questionId/start", c.userQuestion.Start)
		userQuestions.GET("/:questionId/history", c.userQuestion.History)
	}

	group.POST("/solutions", c.solution.Submit)

	recordings := group.Group("/recordings")
	{
		recordings.POST("/upload-url", c.recording.UploadURL)
		recordings.POST("", c.recording.Save)
		recordings.POST("/:id/analyze", c.recording.Analyze)
		recordings.GET("/:id/feedback", c.recording.Feedback)
	}
}

func (a *App) registerRevisionRoutes(group *gin.RouterGroup, c *controllers) {
	revisions := group.Group("/revisions")
	{
		revisions.GET("/pending", c.revision.Pending)
		revisions.GET("/today", c.revision.Today)
		revisions.POST("/generate", c.revision.Generate)
		revisions.POST("/:scheduleId/complete", c.revision.Complete)
	}

	group.GET("/readiness", c.readiness.Get)

	analytics := group.Group("/analytics")
	{
		analytics.GET("/weekly-progress", c.analytics.WeeklyProgress)
		analytics.GET("/pattern-progress", c.analytics.PatternProgress)
		analytics.GET("/streak", c.analytics.Streak)
		analytics.GET("/summary", c.analytics.Summary)
	}
}

func (a *App) registerBillingRoutes(group *gin.RouterGroup, c *controllers) {
	subscription := group.Group("/subscription")
	{
		subscription.GET("", c.subscription.Status)
		subscription.POST("/cancel", c.subscription.Cancel)
		subscription.GET("/active", c.subscription.Active)
	}

	payments := group.Group("/payments")
	{
		payments.POST("/create-order", c.payment.CreateOrder)
		payments.POST("/verify", c.payment.Verify)
	}
}
