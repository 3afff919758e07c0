package httpx

import (
	"errors"
	"net/http"

	"github.com/advista/advista/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
//
// Authorization denials surface as a uniform 403 regardless of the internal
// reason; the reason stays in logs only. Store unavailability maps to 503 so
// callers can retry with backoff.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", "resource not found")
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", "access denied")
	case errors.Is(err, shared.ErrUnavailable):
		Problem(w, http.StatusServiceUnavailable, "Unavailable", "temporarily unavailable, retry later")
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
