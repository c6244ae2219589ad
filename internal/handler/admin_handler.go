package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tradeboard/pointhub/internal/service"
	"tradeboard/pointhub/pkg/response"
)

type AdminHandler struct {
	listings  service.ListingService
	recharges service.RechargeService
	ledger    service.LedgerService
}

func NewAdminHandler(listings service.ListingService, recharges service.RechargeService, ledger service.LedgerService) *AdminHandler {
	return &AdminHandler{
		listings:  listings,
		recharges: recharges,
		ledger:    ledger,
	}
}

// SweepExpired retires listings past their expire_at.
func (h *AdminHandler) SweepExpired(c *gin.Context) {
	result, err := h.listings.SweepExpired(c.Request.Context(), time.Now())
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"count": result.Count})
}

// SweepStale retires listings older than the stale age and reports each refund.
func (h *AdminHandler) SweepStale(c *gin.Context) {
	result, err := h.listings.SweepStale(c.Request.Context(), time.Now())
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, result)
}

type PendingRechargesRequest struct {
	Limit int `json:"limit"`
}

func (h *AdminHandler) PendingRecharges(c *gin.Context) {
	var req PendingRechargesRequest
	// An empty body means the default page.
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	reqs, err := h.recharges.ListPending(c.Request.Context(), req.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"requests": reqs})
}

type ReviewRechargeRequest struct {
	RequestID uuid.UUID `json:"request_id" binding:"required"`
	Approved  bool      `json:"approved"`
	AdminNote string    `json:"admin_note"`
}

func (h *AdminHandler) ReviewRecharge(c *gin.Context) {
	operatorID, err := getOperatorIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid operator context")
		return
	}

	var req ReviewRechargeRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.recharges.Review(c.Request.Context(), operatorID, req.RequestID, req.Approved, req.AdminNote)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, result)
}

func (h *AdminHandler) AuditLedger(c *gin.Context) {
	var req UserRequest
	if !bindJSON(c, &req) {
		return
	}

	report, err := h.ledger.Audit(c.Request.Context(), req.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, report)
}
