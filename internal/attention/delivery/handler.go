package delivery

import (
	"errors"
	"log"
	"net/http"

	"famsync-backend/internal/attention/domain"
	"famsync-backend/internal/attention/dto"
	"famsync-backend/internal/attention/usecase"

	"github.com/gin-gonic/gin"
)

// AttentionHandler handles attention-related HTTP requests
type AttentionHandler struct {
	attentionUsecase usecase.AttentionUsecase
}

// NewAttentionHandler creates a new AttentionHandler
func NewAttentionHandler(attentionUsecase usecase.AttentionUsecase) *AttentionHandler {
	return &AttentionHandler{
		attentionUsecase: attentionUsecase,
	}
}

// RegisterRoutes mounts the attention routes on a family-scoped group
func (h *AttentionHandler) RegisterRoutes(family *gin.RouterGroup) {
	attention := family.Group("/attention")
	{
		attention.GET("/mode", h.GetMode)
		attention.PUT("/mode", h.SetMode)
		attention.POST("/requests", h.SendRequest)
		attention.GET("/requests/active", h.GetActiveRequest)
		attention.GET("/requests/:requestId", h.GetRequest)
		attention.POST("/requests/:requestId/ack", h.AckRequest)
		attention.POST("/requests/:requestId/cancel", h.CancelRequest)
	}
}

// GetMode returns the caller's attention mode
// GET /api/families/:familyId/attention/mode
func (h *AttentionHandler) GetMode(c *gin.Context) {
	userID := c.GetString("userID")

	mode, err := h.attentionUsecase.GetMode(c.Request.Context(), c.Param("familyId"), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, mode)
}

// SetMode updates the caller's attention mode
// PUT /api/families/:familyId/attention/mode
func (h *AttentionHandler) SetMode(c *gin.Context) {
	userID := c.GetString("userID")

	var req dto.SetModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "enabled and allow_loud must both be JSON booleans",
			Code:  domain.Code(domain.ErrValidation),
		})
		return
	}

	mode, err := h.attentionUsecase.SetMode(c.Request.Context(), c.Param("familyId"), userID, *req.Enabled, *req.AllowLoud)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, mode)
}

// SendRequest rings another family member
// POST /api/families/:familyId/attention/requests
func (h *AttentionHandler) SendRequest(c *gin.Context) {
	userID := c.GetString("userID")

	var req dto.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Code: domain.Code(domain.ErrValidation)})
		return
	}

	created, err := h.attentionUsecase.SendRequest(c.Request.Context(), usecase.SendInput{
		FamilyID:    c.Param("familyId"),
		SenderUID:   userID,
		TargetUID:   req.TargetUID,
		Intensity:   domain.Intensity(req.Intensity),
		DurationSec: req.DurationSec,
		Message:     req.Message,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// GetRequest returns a request to its sender or target
// GET /api/families/:familyId/attention/requests/:requestId
func (h *AttentionHandler) GetRequest(c *gin.Context) {
	userID := c.GetString("userID")

	req, err := h.attentionUsecase.GetRequest(c.Request.Context(), c.Param("familyId"), c.Param("requestId"), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// GetActiveRequest returns the open request addressed to the caller
// GET /api/families/:familyId/attention/requests/active
func (h *AttentionHandler) GetActiveRequest(c *gin.Context) {
	userID := c.GetString("userID")

	req, err := h.attentionUsecase.GetActiveForTarget(c.Request.Context(), c.Param("familyId"), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// AckRequest acknowledges a request addressed to the caller
// POST /api/families/:familyId/attention/requests/:requestId/ack
func (h *AttentionHandler) AckRequest(c *gin.Context) {
	userID := c.GetString("userID")

	req, err := h.attentionUsecase.Ack(c.Request.Context(), c.Param("familyId"), c.Param("requestId"), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// CancelRequest cancels a request the caller sent
// POST /api/families/:familyId/attention/requests/:requestId/cancel
func (h *AttentionHandler) CancelRequest(c *gin.Context) {
	userID := c.GetString("userID")

	req, err := h.attentionUsecase.Cancel(c.Request.Context(), c.Param("familyId"), c.Param("requestId"), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrPolicyDenied):
		status = http.StatusUnprocessableEntity
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("[Attention] Internal error: %v", err)
		msg = "internal server error"
	}
	c.JSON(status, dto.ErrorResponse{Error: msg, Code: domain.Code(err)})
}
