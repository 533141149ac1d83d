package contracts

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
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/contracts", auth.RequireRoles(auth.RoleOwnerContract, auth.RoleAdmin), h.Create)
	r.GET("/contracts", h.List)
	r.GET("/contracts/:id", h.Get)
	r.PUT("/contracts/:id", auth.RequireRoles(auth.RoleOwnerContract, auth.RoleAdmin), h.Update)
	r.POST("/contracts/:id/submit", auth.RequireRoles(auth.RoleOwnerContract, auth.RoleAdmin), h.Submit)
	r.POST("/contracts/:id/archive", auth.RequireRoles(auth.RoleOwnerContract, auth.RoleAdmin), h.Archive)
}

func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	identity := auth.CurrentIdentity(c)
	contract, err := h.service.Create(c.Request.Context(), *identity, req)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, contract)
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

func (h *Handler) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	identity := auth.CurrentIdentity(c)
	contract, err := h.service.Get(c.Request.Context(), *identity, id)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	identity := auth.CurrentIdentity(c)
	contract, err := h.service.Update(c.Request.Context(), *identity, id, req)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (h *Handler) Submit(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	identity := auth.CurrentIdentity(c)
	contract, err := h.service.Submit(c.Request.Context(), *identity, id)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": contract.Status})
}

func (h *Handler) Archive(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	identity := auth.CurrentIdentity(c)
	contract, err := h.service.Archive(c.Request.Context(), *identity, id)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": contract.Status})
}
