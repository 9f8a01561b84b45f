package api

import (
	"net/http"

	attentionDelivery "famsync-backend/internal/attention/delivery"
	authDelivery "famsync-backend/internal/auth/delivery"
	"famsync-backend/pkg/config"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, cfg *config.Config, attentionHandler *attentionDelivery.AttentionHandler, fcmHandler *authDelivery.FCMHandler) {
	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// FCM routes (protected)
		fcm := api.Group("/fcm")
		fcm.Use(authDelivery.AuthMiddleware(cfg.JWTSecret))
		{
			fcm.POST("/register", fcmHandler.RegisterFCMToken)
			fcm.DELETE("/:token", fcmHandler.UnregisterFCMToken)
		}

		// Family-scoped routes (protected)
		family := api.Group("/families/:familyId")
		family.Use(authDelivery.AuthMiddleware(cfg.JWTSecret))
		attentionHandler.RegisterRoutes(family)
	}
}
