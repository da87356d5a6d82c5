package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/review-auth-api/internal/application/magiclink"
	"github.com/review-auth-api/internal/domain"
	"github.com/review-auth-api/internal/application/token"
	"github.com/review-auth-api/internal/pkg/validate"
	"github.com/review-auth-api/internal/transport/http/middleware"
)

// AuthHandler handles the passwordless authentication endpoints.
type AuthHandler struct {
	magic  magiclink.Service
	tokens token.Service
}

func NewAuthHandler(magic magiclink.Service, tokens token.Service) *AuthHandler {
	return &AuthHandler{magic: magic, tokens: tokens}
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Token    string `json:"token" validate:"required"`
	IsSignUp bool   `json:"is_signup"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func decodeValid(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return validate.Struct(v)
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.magic.SignUp(r.Context(), req.Email); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "verification code sent"})
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.magic.SendMagicLink(r.Context(), req.Email); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "verification code sent"})
}

func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.magic.VerifyMagicLink(r.Context(), req.Email, req.Token, req.IsSignUp)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			writeJSON(w, http.StatusUnauthorized, VerifyEnvelope{Success: false, Message: "Invalid token"})
			return
		}
		writeDomainError(w, err)
		return
	}
	resp := VerifyEnvelope{Success: true, Message: "Token verified successfully"}
	if result.User != nil {
		pair, err := h.tokens.IssueTokensForUser(r.Context(), result.User.UserID, result.User.Roles)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		resp.Tokens = pair
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) Resend(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.magic.ResendMagicLink(r.Context(), req.Email); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "verification code sent"})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "refresh_token required")
		return
	}
	pair, err := h.tokens.RefreshFromToken(r.Context(), req.RefreshToken)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.tokens.RevokeRefreshForUser(r.Context(), claims.Subject); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "signed out"})
}
