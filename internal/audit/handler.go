package audit

import (
	"fmt"
	"net/http"
	"time"

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
	viewers := auth.RequireRoles(auth.RoleAdmin, auth.RoleAuditor)
	r.GET("/audits", viewers, h.List)
	r.GET("/audits/export", viewers, h.Export)
}

func filterFromQuery(c *gin.Context) Filter {
	return Filter{
		EntityType: c.Query("entity_type"),
		EntityID:   c.Query("entity_id"),
		Actor:      c.Query("actor"),
	}
}

func (h *Handler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context(), filterFromQuery(c))
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) Export(c *gin.Context) {
	items, err := h.service.List(c.Request.Context(), filterFromQuery(c))
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	filename := fmt.Sprintf("audit-trail-%s.xlsx", time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := ExportXLSX(c.Writer, items); err != nil {
		h.logger.Error("audit export failed", zap.Error(err))
	}
}
