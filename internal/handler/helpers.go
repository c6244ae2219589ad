package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tradeboard/pointhub/internal/handler/middleware"
	"tradeboard/pointhub/internal/service"
	"tradeboard/pointhub/pkg/response"
)

var ErrNoOperator = errors.New("operator not found in context")

func getOperatorIDFromContext(c *gin.Context) (uuid.UUID, error) {
	val, exists := c.Get(middleware.ContextKeyOperatorID)
	if !exists {
		return uuid.Nil, ErrNoOperator
	}
	id, ok := val.(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrNoOperator
	}
	return id, nil
}

// writeError maps a service error to its status code and envelope.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, service.ErrValidation):
		response.Error(c, http.StatusBadRequest, response.CodeValidation, err.Error())
	case errors.Is(err, service.ErrNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
	case errors.Is(err, service.ErrInsufficientFunds):
		response.Error(c, http.StatusPaymentRequired, response.CodeInsufficientFunds, err.Error())
	case errors.Is(err, service.ErrQuotaExhausted):
		response.Error(c, http.StatusConflict, response.CodeQuotaExhausted, err.Error())
	case errors.Is(err, service.ErrListingWithdrawn):
		response.Error(c, http.StatusConflict, response.CodeListingWithdrawn, err.Error())
	case errors.Is(err, service.ErrStorageUnavailable):
		response.Error(c, http.StatusServiceUnavailable, response.CodeStorageUnavailable, "storage unavailable")
	case errors.Is(err, service.ErrConfig):
		response.Error(c, http.StatusInternalServerError, response.CodeConfig, "service misconfigured")
	default:
		response.InternalError(c, "internal server error")
	}
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return false
	}
	return true
}
