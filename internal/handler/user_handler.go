package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tradeboard/pointhub/internal/service"
	"tradeboard/pointhub/pkg/response"
)

type UserHandler struct {
	accounts service.AccountService
	ledger   service.LedgerService
}

func NewUserHandler(accounts service.AccountService, ledger service.LedgerService) *UserHandler {
	return &UserHandler{
		accounts: accounts,
		ledger:   ledger,
	}
}

type RegisterRequest struct {
	Contact    string `json:"contact" binding:"required"`
	InviteCode string `json:"invite_code"`
}

func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.accounts.Register(c.Request.Context(), req.Contact, req.InviteCode)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, result)
}

func (h *UserHandler) Profile(c *gin.Context) {
	var req UserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.accounts.Get(c.Request.Context(), req.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, user)
}

type PointsHistoryRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

func (h *UserHandler) History(c *gin.Context) {
	var req PointsHistoryRequest
	if !bindJSON(c, &req) {
		return
	}

	entries, err := h.ledger.History(c.Request.Context(), req.UserID, req.Limit, req.Offset)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"entries": entries})
}
