package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/noob2628/Inventory-App/internal/auth"
	"github.com/noob2628/Inventory-App/internal/services"
	"github.com/noob2628/Inventory-App/types"
)

// AuthHandler provides JWT authentication endpoints.
type AuthHandler struct {
	userService *services.UserService
	tokens      *auth.TokenManager
	logger      *zap.Logger
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(userService *services.UserService, tokens *auth.TokenManager, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		userService: userService,
		tokens:      tokens,
		logger:      logger,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, userService *services.UserService, tokens *auth.TokenManager, logger *zap.Logger) {
	handler := NewAuthHandler(userService, tokens, logger)

	r.Post("/signup", handler.Signup)
	r.Post("/login", handler.Login)
	r.With(RequireAuth(tokens)).Get("/me", handler.Me)
}

// RequireAuth verifies the bearer token and stores the caller's claims in the request context.
func RequireAuth(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			claims, err := tokens.Verify(tokenString)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

// Signup creates a regular user account and returns a JWT.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, err, "create user", "user")
		return
	}

	user, err := h.userService.Signup(r.Context(), services.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err, "create user", "user")
		return
	}

	h.respondWithToken(w, r, http.StatusCreated, user)
}

// Login verifies credentials and returns a JWT.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, err, "authenticate", "user")
		return
	}

	user, _, err := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "authenticate", "user")
		return
	}

	h.respondWithToken(w, r, http.StatusOK, user)
}

// Me returns the current authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if !claims.Authenticated() {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.userService.GetByID(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "load user", "user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, user types.User) {
	token, err := h.tokens.Issue(auth.Claims{UserID: user.ID, Role: user.Role})
	if err != nil {
		writeServiceError(w, r, h.logger, err, "create token", "token")
		return
	}
	writeJSON(w, status, AuthResponse{Token: token, User: user})
}

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string     `json:"token"`
	User  types.User `json:"user"`
}

func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
