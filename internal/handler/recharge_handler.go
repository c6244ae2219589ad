package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tradeboard/pointhub/internal/service"
	"tradeboard/pointhub/pkg/response"
)

type RechargeHandler struct {
	recharges service.RechargeService
}

func NewRechargeHandler(recharges service.RechargeService) *RechargeHandler {
	return &RechargeHandler{recharges: recharges}
}

type SubmitRechargeRequest struct {
	UserID   uuid.UUID       `json:"user_id" binding:"required"`
	Amount   decimal.Decimal `json:"amount"`
	IsCustom bool            `json:"is_custom"`
	Points   *int64          `json:"points"`
}

func (h *RechargeHandler) Submit(c *gin.Context) {
	var req SubmitRechargeRequest
	if !bindJSON(c, &req) {
		return
	}

	created, err := h.recharges.Submit(c.Request.Context(), service.SubmitRechargeInput{
		UserID:   req.UserID,
		Amount:   req.Amount,
		IsCustom: req.IsCustom,
		Points:   req.Points,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, created)
}
