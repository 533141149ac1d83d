package payments

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
	r.POST("/payments", auth.RequireRoles(auth.RoleContractor, auth.RoleAdmin), h.Submit)
	r.GET("/payments", h.List)
	r.GET("/payments/:id", h.Get)
	r.GET("/payments/:id/calc", h.Calc)
	r.POST("/payments/:id/review/contract",
		auth.RequireRoles(auth.RoleOwnerContract, auth.RoleAdmin), h.ContractReview)
	r.POST("/payments/:id/review/finance/approve",
		auth.RequireRoles(auth.RoleOwnerFinance, auth.RoleAdmin), h.FinanceApprove)
	r.POST("/payments/:id/review/finance/reject",
		auth.RequireRoles(auth.RoleOwnerFinance, auth.RoleAdmin), h.FinanceReject)
}

func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	identity := auth.CurrentIdentity(c)
	p, err := h.service.Submit(c.Request.Context(), *identity, req)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
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
	p, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) Calc(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	ceiling, err := h.service.CeilingFor(c.Request.Context(), id)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ceiling)
}

func (h *Handler) ContractReview(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	identity := auth.CurrentIdentity(c)
	p, err := h.service.ContractReview(c.Request.Context(), *identity, id)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": p.Status})
}

func (h *Handler) FinanceApprove(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	identity := auth.CurrentIdentity(c)
	p, err := h.service.FinanceApprove(c.Request.Context(), *identity, id)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	if p.IsBlocked {
		reason := ""
		if p.BlockReason != nil {
			reason = *p.BlockReason
		}
		c.JSON(http.StatusOK, gin.H{"ok": false, "status": p.Status, "blocked": true, "reason": reason})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": p.Status})
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) FinanceReject(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req rejectRequest
	_ = c.ShouldBindJSON(&req)
	identity := auth.CurrentIdentity(c)
	p, err := h.service.FinanceReject(c.Request.Context(), *identity, id, req.Reason)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": p.Status})
}
