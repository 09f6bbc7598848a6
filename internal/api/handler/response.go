// internal/api/handler/response.go
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"novapay-wallet/internal/synccode"
	"novapay-wallet/internal/util"
)

// DefaultTimeout bounds the handling of a single request.
const DefaultTimeout = 15 * time.Second

// maxBodyBytes leaves room for a profile image data URI.
const maxBodyBytes = 2 << 20

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"` // Validation details
}

// responder carries the helpers shared by all handlers.
type responder struct {
	logger   *slog.Logger
	validate *validator.Validate
}

func newResponder(logger *slog.Logger) responder {
	return responder{logger: logger, validate: validator.New()}
}

// Helper function to send JSON responses.
func (h responder) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// Helper function to send error responses.
func (h responder) respondWithError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case util.IsError(err, util.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		message = err.Error() // Service messages name the offending field
	case util.IsError(err, util.ErrNoActiveSession):
		statusCode = http.StatusUnauthorized
		message = "No active session"
	case util.IsError(err, util.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		message = "Unauthorized"
	case util.IsError(err, util.ErrFeatureLocked):
		statusCode = http.StatusForbidden
		message = "This feature requires an active subscription"
	case util.IsError(err, util.ErrNotFound):
		statusCode = http.StatusNotFound
		message = "Resource not found"
	case util.IsError(err, util.ErrDuplicateEntry):
		statusCode = http.StatusConflict
		message = "An account with this email already exists"
	case util.IsError(err, util.ErrInsufficientFunds):
		statusCode = http.StatusPaymentRequired // 402 Payment Required
		message = "Insufficient funds"
	case errors.Is(err, synccode.ErrExpired):
		statusCode = http.StatusUnprocessableEntity
		message = "Sync code has expired"
	case errors.Is(err, synccode.ErrUnsupportedLegacyFormat):
		statusCode = http.StatusUnprocessableEntity
		message = "Sync code uses an unsupported legacy format"
	case errors.Is(err, synccode.ErrInvalidFormat), errors.Is(err, synccode.ErrInvalidRecord):
		statusCode = http.StatusUnprocessableEntity
		message = "Invalid sync code"
	default:
		h.logger.Error("Unhandled service error", "error", err)
	}

	h.respondWithJSON(w, statusCode, ErrorResponse{Error: message})
}

// decode reads a JSON body into dst and runs its validate tags.
// It writes the error response itself and reports whether the caller may continue.
func (h responder) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respondWithError(w, fmt.Errorf("malformed request body: %w", util.ErrInvalidInput))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			h.respondWithError(w, err)
			return false
		}
		details := make(map[string]string, len(validationErrs))
		for _, fe := range validationErrs {
			details[fe.Field()] = fmt.Sprintf("Field validation failed on '%s' tag", fe.Tag())
		}
		h.respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: util.ErrInvalidInput.Error(), Details: details})
		return false
	}
	return true
}
