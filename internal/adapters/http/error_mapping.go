package httpadapter

import (
	"errors"
	"net/http"

	"github.com/kirillkom/trial-balance-analyzer/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrIngestion),
		domain.IsKind(err, domain.ErrInsufficientStructure):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrStatementNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
