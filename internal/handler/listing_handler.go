package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tradeboard/pointhub/internal/service"
	"tradeboard/pointhub/pkg/response"
)

type ListingHandler struct {
	listings service.ListingService
	viewGate service.ViewGateService
}

func NewListingHandler(listings service.ListingService, viewGate service.ViewGateService) *ListingHandler {
	return &ListingHandler{
		listings: listings,
		viewGate: viewGate,
	}
}

type PublishListingRequest struct {
	OwnerID   uuid.UUID       `json:"owner_id" binding:"required"`
	Title     string          `json:"title" binding:"required"`
	Keywords  string          `json:"keywords"`
	Price     decimal.Decimal `json:"price"`
	ExtraInfo string          `json:"extra_info"`
	ViewLimit int             `json:"view_limit"`
}

func (h *ListingHandler) Publish(c *gin.Context) {
	var req PublishListingRequest
	if !bindJSON(c, &req) {
		return
	}

	listing, err := h.listings.Publish(c.Request.Context(), service.PublishInput{
		OwnerID:   req.OwnerID,
		Title:     req.Title,
		Keywords:  req.Keywords,
		Price:     req.Price,
		ExtraInfo: req.ExtraInfo,
		ViewLimit: req.ViewLimit,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, listing)
}

type WithdrawListingRequest struct {
	OwnerID   uuid.UUID `json:"owner_id" binding:"required"`
	ListingID uuid.UUID `json:"listing_id" binding:"required"`
}

func (h *ListingHandler) Withdraw(c *gin.Context) {
	var req WithdrawListingRequest
	if !bindJSON(c, &req) {
		return
	}

	refund, err := h.listings.Withdraw(c.Request.Context(), req.OwnerID, req.ListingID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"refund": refund})
}

type ListingDetailRequest struct {
	ListingID uuid.UUID `json:"listing_id" binding:"required"`
}

func (h *ListingHandler) Detail(c *gin.Context) {
	var req ListingDetailRequest
	if !bindJSON(c, &req) {
		return
	}

	detail, err := h.viewGate.Detail(c.Request.Context(), req.ListingID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, detail)
}
