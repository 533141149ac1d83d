package changes

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"contract-platform/contract-portal-backend/internal/apperr"
	"contract-platform/contract-portal-backend/internal/auth"
)

type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/changes", auth.RequireRoles(auth.RoleContractor, auth.RoleAdmin), h.Submit)
	r.GET("/changes", h.List)
	r.GET("/changes/pending", h.Pending)
	r.GET("/changes/:id", h.Get)
	r.GET("/changes/:id/tasks", h.Tasks)
	r.POST("/changes/tasks/:task_id/approve", h.ApproveTask)
	r.POST("/changes/tasks/:task_id/reject", h.RejectTask)
}

type taskActionRequest struct {
	Comment string `json:"comment"`
}

func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	identity := auth.CurrentIdentity(c)
	ch, err := h.service.Submit(c.Request.Context(), *identity, req)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ch)
}

func (h *Handler) List(c *gin.Context) {
	identity := auth.CurrentIdentity(c)
	items, err := h.service.List(c.Request.Context(), *identity)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) Pending(c *gin.Context) {
	identity := auth.CurrentIdentity(c)
	items, err := h.service.PendingForUser(c.Request.Context(), *identity)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	ch, err := h.service.Get(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ch)
}

func (h *Handler) Tasks(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	tasks, err := h.service.Tasks(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *Handler) ApproveTask(c *gin.Context) {
	h.resolveTask(c, h.service.ApproveTask)
}

func (h *Handler) RejectTask(c *gin.Context) {
	h.resolveTask(c, h.service.RejectTask)
}

func (h *Handler) resolveTask(c *gin.Context, action func(context.Context, auth.Identity, uint, string) error) {
	taskID, err := strconv.ParseUint(c.Param("task_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}
	var req taskActionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	identity := auth.CurrentIdentity(c)
	if err := action(c.Request.Context(), *identity, uint(taskID), req.Comment); err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
