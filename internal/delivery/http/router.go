package http

import (
	"github.com/gdugdh24/teamup-backend/internal/delivery/http/handler"
	"github.com/gdugdh24/teamup-backend/internal/delivery/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	matchingHandler *handler.MatchingHandler
	profileHandler  *handler.ProfileHandler
	authMiddleware  *middleware.AuthMiddleware
}

func NewRouter(
	matchingHandler *handler.MatchingHandler,
	profileHandler *handler.ProfileHandler,
	authMiddleware *middleware.AuthMiddleware,
) *Router {
	return &Router{
		matchingHandler: matchingHandler,
		profileHandler:  profileHandler,
		authMiddleware:  authMiddleware,
	}
}

func (r *Router) Setup() *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.AccessLog(), middleware.Recovery())

	// Health check (supports both GET and HEAD)
	healthHandler := func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1
	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(r.authMiddleware.RequireAuth())
		{
			// Matching routes
			matching := protected.Group("/matching")
			{
				matching.GET("/recommendations", r.matchingHandler.GetRecommendations)
				matching.GET("/score/:candidateId", r.matchingHandler.GetScore)
				matching.POST("/refresh", r.matchingHandler.Refresh)
				matching.GET("/profile-completion", r.profileHandler.GetProfileCompletion)
			}

			// Profile routes
			profile := protected.Group("/profile")
			{
				profile.GET("/me", r.profileHandler.GetMyProfile)
				profile.PUT("/me/matching", r.profileHandler.UpdateMatchingProfile)
			}
		}
	}

	return router
}
