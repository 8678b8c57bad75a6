package handler

import (
	"errors"
	"net/http"

	"github.com/blurmagic/backend/middleware"
	"github.com/blurmagic/backend/repository"
	"github.com/blurmagic/backend/service"
	"github.com/gin-gonic/gin"
)

type EntitlementHandler struct {
	entitlements *service.EntitlementService
	ledger       *repository.LedgerRepository
}

func NewEntitlementHandler(entitlements *service.EntitlementService, ledger *repository.LedgerRepository) *EntitlementHandler {
	return &EntitlementHandler{entitlements: entitlements, ledger: ledger}
}

// GET /entitlements
func (h *EntitlementHandler) GetEntitlements(c *gin.Context) {
	uid := middleware.UID(c)

	ent, err := h.entitlements.GetEntitlements(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ent)
}

type consumeRequest struct {
	Count  int64  `json:"count"`
	Reason string `json:"reason"`
}

// POST /credits/consume
func (h *EntitlementHandler) ConsumeCredits(c *gin.Context) {
	uid := middleware.UID(c)

	var req consumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ent, err := h.entitlements.ConsumeCredits(c.Request.Context(), uid, req.Count, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ent)
}

// GET /credits/ledger
func (h *EntitlementHandler) Ledger(c *gin.Context) {
	uid := middleware.UID(c)

	list, err := h.ledger.ListByUser(c.Request.Context(), uid, 100)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": list})
}

// writeError maps service errors onto statuses. Insufficient credits carries
// a machine-readable code so clients can branch without parsing the message.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInsufficientCredits):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error(), "code": "insufficient_credits"})
	case errors.Is(err, service.ErrInvalidCount),
		errors.Is(err, service.ErrMissingTxID),
		errors.Is(err, service.ErrNoDepositAddress):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
