package app

import (
	"campaign_call_backend/docs"
	"campaign_call_backend/internal/config"
	"campaign_call_backend/internal/middleware"
	"campaign_call_backend/internal/model"

	"campaign_call_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	a.registerPublicRoutes(router, c)

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		a.registerReviewerRoutes(authGroup, c)
		a.registerSupervisorRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}
}

// registerReviewerRoutes covers the day-to-day calling workflow: pull a
// batch into your queue, work the queue, log attempts and survey answers.
func (a *App) registerReviewerRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.GetProfile)

	campaigns := rg.Group("/campaigns")
	{
		campaigns.GET("", c.campaign.List)
		campaigns.GET("/:id", c.campaign.Get)
		campaigns.GET("/:id/surveys", c.campaign.GetSurvey)
	}

	voters := rg.Group("/voters")
	{
		voters.GET("/:id", c.voter.Get)
		voters.GET("", c.voter.List)
		voters.GET("/:id/calls", c.voter.CallHistory)
	}

	assignments := rg.Group("/assignments")
	{
		assignments.POST("/load-batch", c.assignment.LoadBatch)
		assignments.GET("/queue", c.assignment.GetQueue)
		assignments.GET("/next", c.assignment.GetNext)
		assignments.POST("/:id/start", c.assignment.Start)
	}

	calls := rg.Group("/calls")
	{
		calls.POST("", c.call.LogCall)
		calls.POST("/:id/schedule-next", c.call.ScheduleNext)
		calls.POST("/:id/responses", c.call.RecordResponse)
		calls.GET("/:id/responses", c.call.GetResponses)
		calls.GET("/follow-ups", c.call.GetFollowUps)
		calls.GET("/response-history", c.call.GetResponseHistory)
	}
}

// registerSupervisorRoutes covers campaign administration and queue
// management across reviewers.
func (a *App) registerSupervisorRoutes(rg *gin.RouterGroup, c *controllers) {
	supervisor := rg.Group("/")
	supervisor.Use(middleware.RoleMiddleware(model.Supervisor, model.Admin))
	{
		supervisor.GET("/reviewers", c.auth.ListReviewers)

		supervisor.POST("/campaigns", c.campaign.Create)
		supervisor.GET("/campaigns/:id/overview", c.campaign.Overview)
		supervisor.POST("/campaigns/:id/surveys", c.campaign.CreateSurvey)

		supervisor.POST("/voters", c.voter.Register)

		supervisor.POST("/assignments/assign", c.assignment.AssignVoter)
		supervisor.POST("/assignments/assign-batch", c.assignment.AssignVoters)
		supervisor.POST("/assignments/auto-assign", c.assignment.AutoAssign)
		supervisor.POST("/assignments/reassign", c.assignment.Reassign)
		supervisor.PUT("/assignments/priority", c.assignment.UpdatePriority)
		supervisor.GET("/assignments/workload", c.assignment.GetWorkload)
		supervisor.GET("/assignments/statistics", c.assignment.GetStatistics)
	}
}
