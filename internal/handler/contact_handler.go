package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tradeboard/pointhub/internal/service"
	"tradeboard/pointhub/pkg/response"
)

type ContactHandler struct {
	viewGate service.ViewGateService
}

func NewContactHandler(viewGate service.ViewGateService) *ContactHandler {
	return &ContactHandler{viewGate: viewGate}
}

type RevealContactRequest struct {
	ViewerID  uuid.UUID `json:"viewer_id" binding:"required"`
	ListingID uuid.UUID `json:"listing_id" binding:"required"`
}

// Reveal returns the listing owner's contact, charging the viewer on the
// first reveal only.
func (h *ContactHandler) Reveal(c *gin.Context) {
	var req RevealContactRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.viewGate.Reveal(c.Request.Context(), req.ViewerID, req.ListingID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, result)
}
