package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tradeboard/pointhub/internal/service"
	"tradeboard/pointhub/pkg/response"
)

type ReferralHandler struct {
	referrals service.ReferralService
}

func NewReferralHandler(referrals service.ReferralService) *ReferralHandler {
	return &ReferralHandler{referrals: referrals}
}

type ProcessReferralRequest struct {
	InviterCode string    `json:"inviter_code" binding:"required"`
	InviteeID   uuid.UUID `json:"invitee_id" binding:"required"`
}

func (h *ReferralHandler) Process(c *gin.Context) {
	var req ProcessReferralRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.referrals.ProcessReferral(c.Request.Context(), req.InviterCode, req.InviteeID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, result)
}

type UserRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

func (h *ReferralHandler) Info(c *gin.Context) {
	var req UserRequest
	if !bindJSON(c, &req) {
		return
	}

	info, err := h.referrals.Info(c.Request.Context(), req.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, info)
}
