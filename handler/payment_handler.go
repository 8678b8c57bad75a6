package handler

import (
	"errors"
	"net/http"

	"github.com/blurmagic/backend/middleware"
	"github.com/blurmagic/backend/model"
	"github.com/blurmagic/backend/repository"
	"github.com/blurmagic/backend/service"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PaymentHandler struct {
	wallet   *service.WalletService
	claims   *service.ClaimService
	payments *repository.PaymentRepository

	priceUSDT      float64
	monthlyCredits int64
}

func NewPaymentHandler(wallet *service.WalletService, claims *service.ClaimService,
	payments *repository.PaymentRepository, priceUSDT float64, monthlyCredits int64) *PaymentHandler {
	return &PaymentHandler{
		wallet:         wallet,
		claims:         claims,
		payments:       payments,
		priceUSDT:      priceUSDT,
		monthlyCredits: monthlyCredits,
	}
}

// POST /payments/tron/deposit
func (h *PaymentHandler) CreateTronDeposit(c *gin.Context) {
	uid := middleware.UID(c)

	address, err := h.wallet.EnsureTronDepositAddress(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"address":   address,
		"chain":     model.ChainTRC20,
		"token":     "USDT",
		"priceUsdt": h.priceUSDT,
		"credits":   h.monthlyCredits,
	})
}

type claimRequest struct {
	TxID string `json:"txid"`
}

// POST /payments/tron/claim
func (h *PaymentHandler) ClaimTron(c *gin.Context) {
	uid := middleware.UID(c)

	var req claimRequest
	_ = c.ShouldBindJSON(&req) // txid is optional here

	res, err := h.claims.ClaimTron(c.Request.Context(), uid, req.TxID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, claimResponse(res))
}

// POST /payments/bsc/claim
func (h *PaymentHandler) ClaimBSC(c *gin.Context) {
	uid := middleware.UID(c)

	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := h.claims.ClaimBSC(c.Request.Context(), uid, req.TxID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, claimResponse(res))
}

// GET /payments/status/:chain/:txid
func (h *PaymentHandler) PaymentStatus(c *gin.Context) {
	uid := middleware.UID(c)

	p, err := h.payments.Get(c.Request.Context(), model.PaymentID(c.Param("chain"), c.Param("txid")))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	// another user's payment is indistinguishable from a missing one
	if p.UID != uid {
		c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "payment": p})
}

// GET /payments/history
func (h *PaymentHandler) History(c *gin.Context) {
	uid := middleware.UID(c)

	list, err := h.payments.ListByUser(c.Request.Context(), uid, 50)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": list})
}

func claimResponse(res *service.ClaimResult) gin.H {
	out := gin.H{"ok": true, "paid": res.Paid}
	if res.Paid {
		out["processed"] = res.Processed
		out["txid"] = res.TxID
	} else if res.Reason != "" {
		out["reason"] = res.Reason
	}
	return out
}
