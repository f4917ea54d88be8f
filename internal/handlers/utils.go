package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/noob2628/Inventory-App/internal/auth"
	"github.com/noob2628/Inventory-App/internal/services"
	"github.com/noob2628/Inventory-App/internal/store"
)

const maxBodyBytes = 1 << 20

type contextKey string

const contextClaimsKey contextKey = "claims"

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse acknowledges an operation without a body.
type MessageResponse struct {
	Message string `json:"message"`
}

func withClaims(ctx context.Context, claims auth.Claims) context.Context {
	return context.WithValue(ctx, contextClaimsKey, claims)
}

// claimsFromContext returns the caller set by RequireAuth, or empty claims.
func claimsFromContext(ctx context.Context) auth.Claims {
	claims, _ := ctx.Value(contextClaimsKey).(auth.Claims)
	return claims
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &services.ValidationError{Message: "invalid request body"}
	}
	return nil
}

func parseID(r *http.Request, param string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(chi.URLParam(r, param)))
	if err != nil || id < 1 {
		return 0, &services.ValidationError{Field: param, Message: "invalid " + param}
	}
	return id, nil
}

// queryInt parses an integer query parameter, returning 0 when absent or malformed.
func queryInt(r *http.Request, key string) int {
	value, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(key)))
	if err != nil {
		return 0
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps service and store errors onto HTTP statuses.
// action names the failed operation in 500 responses ("failed to <action>").
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error, action, resource string) {
	status, message := statusFor(err, resource)
	if status == http.StatusInternalServerError {
		message = "failed to " + action
		logger.Error(message,
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
	} else {
		logger.Debug("request rejected",
			zap.String("action", action),
			zap.Int("status", status),
			zap.String("reason", message))
	}
	writeError(w, status, message)
}

func statusFor(err error, resource string) (int, string) {
	var validation *services.ValidationError
	var conflict *services.ConflictError

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Message
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden, "admin access required"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, resource + " not found"
	case errors.As(err, &conflict):
		return http.StatusConflict, conflict.Error()
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict, resource + " already exists"
	default:
		return http.StatusInternalServerError, ""
	}
}
