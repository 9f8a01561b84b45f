package api

import (
	"log"

	attentionDelivery "famsync-backend/internal/attention/delivery"
	attentionUsecase "famsync-backend/internal/attention/usecase"
	authDelivery "famsync-backend/internal/auth/delivery"
	authRepo "famsync-backend/internal/auth/repository"
	"famsync-backend/pkg/config"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	config           *config.Config
	attentionHandler *attentionDelivery.AttentionHandler
	fcmHandler       *authDelivery.FCMHandler
}

func NewHandler(attentionUc attentionUsecase.AttentionUsecase, fcmTokenRepo authRepo.FCMTokenRepository, cfg *config.Config) *Handler {
	attentionHandler := attentionDelivery.NewAttentionHandler(attentionUc)
	fcmHandler := authDelivery.NewFCMHandler(fcmTokenRepo)
	log.Println("Attention handler initialized")

	return &Handler{
		config:           cfg,
		attentionHandler: attentionHandler,
		fcmHandler:       fcmHandler,
	}
}

// Engine builds the gin engine with middleware and routes
func (h *Handler) Engine() *gin.Engine {
	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Setup routes
	SetupRoutes(r, h.config, h.attentionHandler, h.fcmHandler)
	return r
}

func (h *Handler) Start(addr string) error {
	return h.Engine().Run(addr)
}
