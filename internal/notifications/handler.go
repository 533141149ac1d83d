package notifications

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"contract-platform/contract-portal-backend/internal/apperr"
	"contract-platform/contract-portal-backend/internal/auth"
)

type Handler struct {
	service *Service
	hub     *Hub
	logger  *zap.Logger
}

func NewHandler(service *Service, hub *Hub, logger *zap.Logger) *Handler {
	return &Handler{service: service, hub: hub, logger: logger}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/notifications", h.ListMine)
	r.POST("/notifications/:id/read", h.MarkRead)
	r.GET("/notifications/ws", h.Subscribe)
}

func (h *Handler) ListMine(c *gin.Context) {
	identity := auth.CurrentIdentity(c)
	items, err := h.service.ListForUser(c.Request.Context(), identity.Username)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) MarkRead(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	identity := auth.CurrentIdentity(c)
	if err := h.service.MarkRead(c.Request.Context(), identity.Username, uint(id)); err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) Subscribe(c *gin.Context) {
	identity := auth.CurrentIdentity(c)
	if err := h.hub.Subscribe(c.Writer, c.Request, identity.Username); err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
	}
}
