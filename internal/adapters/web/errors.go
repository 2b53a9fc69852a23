package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"retail-suite/internal/core"

	"go.uber.org/zap"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// businessCodes maps business-rule rejections to stable API error codes.
var businessCodes = []struct {
	err  error
	code string
}{
	{core.ErrInsufficientStock, "INSUFFICIENT_STOCK"},
	{core.ErrInsufficientBalance, "INSUFFICIENT_BALANCE"},
	{core.ErrCouponInvalid, "COUPON_INVALID"},
	{core.ErrCouponExpired, "COUPON_EXPIRED"},
	{core.ErrAssetUnavailable, "ASSET_UNAVAILABLE"},
	{core.ErrQuotaExceeded, "QUOTA_EXCEEDED"},
	{core.ErrSubscriptionClosed, "SUBSCRIPTION_CLOSED"},
	{core.ErrInvalidTransition, "INVALID_TRANSITION"},
	{core.ErrModuleDisabled, "MODULE_DISABLED"},
	{core.ErrDuplicate, "DUPLICATE"},
}

// writeServiceError maps an error returned by the application layer to an HTTP
// response. Unexpected errors are logged and reported without detail.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case core.IsValidation(err):
		writeError(w, r, err.Error(), "VALIDATION_ERROR", http.StatusBadRequest)
		return
	case core.IsNotFound(err):
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
		return
	case errors.Is(err, core.ErrInvalidCredentials):
		writeError(w, r, "invalid username or password", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}
	for _, bc := range businessCodes {
		if errors.Is(err, bc.err) {
			writeError(w, r, err.Error(), bc.code, http.StatusConflict)
			return
		}
	}
	h.log.Error("request failed",
		zap.String("request_id", requestIDFromContext(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
}
