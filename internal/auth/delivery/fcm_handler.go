package delivery

import (
	"log"
	"net/http"

	authdomain "famsync-backend/internal/auth/domain"
	"famsync-backend/internal/auth/repository"

	"github.com/gin-gonic/gin"
)

// FCMHandler exposes device-token registration for the signed-in member
type FCMHandler struct {
	fcmRepo repository.FCMTokenRepository
}

// NewFCMHandler creates a new FCMHandler
func NewFCMHandler(fcmRepo repository.FCMTokenRepository) *FCMHandler {
	return &FCMHandler{fcmRepo: fcmRepo}
}

// RegisterFCMTokenRequest represents the request body for registering a device
type RegisterFCMTokenRequest struct {
	Token      string `json:"token" binding:"required"`
	Platform   string `json:"platform"`
	DeviceInfo string `json:"device_info"`
}

// RegisterFCMToken stores the caller's device token
// POST /api/fcm/register
func (h *FCMHandler) RegisterFCMToken(c *gin.Context) {
	userID := c.GetString("userID")

	var req RegisterFCMTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	platform := authdomain.Platform(req.Platform)
	if req.Platform == "" {
		platform = authdomain.PlatformWeb
	}
	if !platform.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "platform must be one of android, ios, web"})
		return
	}

	if err := h.fcmRepo.SaveToken(c.Request.Context(), userID, req.Token, platform, req.DeviceInfo); err != nil {
		log.Printf("[FCM] Failed to save token for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register device"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Device registered"})
}

// UnregisterFCMToken removes one of the caller's device tokens
// DELETE /api/fcm/:token
func (h *FCMHandler) UnregisterFCMToken(c *gin.Context) {
	userID := c.GetString("userID")
	token := c.Param("token")

	deleted, err := h.fcmRepo.DeleteUserToken(c.Request.Context(), userID, token)
	if err != nil {
		log.Printf("[FCM] Failed to delete token for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unregister device"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Device not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Device unregistered"})
}
