package api

import (
	"alcyxob/gym-tracker/internal/domain"
	"alcyxob/gym-tracker/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Services bundles what the HTTP layer depends on.
type Services struct {
	Auth    service.AuthService
	Users   service.UserService
	Catalog service.CatalogService
	Tracker service.TrackerService
}

func SetupRoutes(router *gin.Engine, s Services) {
	authHandler := NewAuthHandler(s.Auth, s.Users, s.Tracker)
	catalogHandler := NewCatalogHandler(s.Catalog)
	trackerHandler := NewTrackerHandler(s.Tracker)
	adminHandler := NewAdminHandler(s.Users)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(s.Auth))
	{
		protected.GET("/me", authHandler.Me)
		protected.POST("/auth/logout", authHandler.Logout)

		protected.GET("/catalog", catalogHandler.List)
		protected.GET("/catalog/:id", catalogHandler.Get)

		trackerGroup := protected.Group("/tracker")
		{
			trackerGroup.GET("", trackerHandler.Get)

			trackerGroup.POST("/days", trackerHandler.AddDay)
			trackerGroup.PATCH("/days/:dayId", trackerHandler.UpdateDay)
			trackerGroup.DELETE("/days/:dayId", trackerHandler.DeleteDay)

			trackerGroup.POST("/days/:dayId/series", trackerHandler.AddSeries)
			trackerGroup.DELETE("/days/:dayId/series/:seriesId", trackerHandler.DeleteSeries)
			trackerGroup.PATCH("/series/:seriesId", trackerHandler.UpdateSeries)
			trackerGroup.POST("/series/:seriesId/reset", trackerHandler.ResetSeries)

			trackerGroup.POST("/series/:seriesId/exercises", trackerHandler.AddExercise)
			trackerGroup.DELETE("/series/:seriesId/exercises/:exerciseId", trackerHandler.DeleteExercise)
			trackerGroup.PATCH("/exercises/:exerciseId", trackerHandler.UpdateExercise)
			trackerGroup.POST("/exercises/:exerciseId/rounds", trackerHandler.RecordRound)
			trackerGroup.POST("/exercises/:exerciseId/rating", trackerHandler.RateExercise)

			trackerGroup.POST("/nav/days/:dayId", trackerHandler.OpenDay)
			trackerGroup.POST("/nav/series/:seriesId", trackerHandler.OpenSeries)
			trackerGroup.POST("/nav/back", trackerHandler.Back)
		}

		adminGroup := protected.Group("/admin")
		adminGroup.Use(RoleMiddleware(domain.RoleAdmin))
		{
			adminGroup.POST("/catalog", catalogHandler.Create)
			adminGroup.PUT("/catalog/:id", catalogHandler.Update)
			adminGroup.DELETE("/catalog/:id", catalogHandler.Delete)
			adminGroup.POST("/catalog/:id/media", catalogHandler.RequestMediaUpload)

			adminGroup.GET("/users", adminHandler.ListUsers)
			adminGroup.PUT("/users/:id/role", adminHandler.SetRole)
		}
	}
}
