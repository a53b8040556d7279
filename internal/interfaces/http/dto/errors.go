package dto

import (
	"net/http"

	"github.com/econtract/backend/internal/domain/shared"
)

// domainCodeHTTPStatus maps domain error codes to HTTP status codes.
// Invalid state transitions come back as 422 so clients can tell a
// lifecycle violation apart from a malformed request.
var domainCodeHTTPStatus = map[string]int{
	shared.CodeNotFound:          http.StatusNotFound,
	shared.CodeValidation:        http.StatusBadRequest,
	shared.CodeInvalidState:      http.StatusUnprocessableEntity,
	shared.CodeConflict:          http.StatusConflict,
	shared.CodeExternalService:   http.StatusBadGateway,
	shared.CodeUnsupportedFormat: http.StatusUnsupportedMediaType,
}

// Error codes the HTTP layer emits on its own, outside of domain errors
const (
	ErrCodeBadRequest = "BAD_REQUEST"
	ErrCodeInternal   = "INTERNAL_ERROR"
)

// HTTPStatus returns the HTTP status for a domain error code. Unknown codes
// fall back to 500.
func HTTPStatus(code string) int {
	if status, ok := domainCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
