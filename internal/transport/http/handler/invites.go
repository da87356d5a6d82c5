package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/review-auth-api/internal/application/decision"
	"github.com/review-auth-api/internal/application/invite"
	"github.com/review-auth-api/internal/domain"
	"github.com/review-auth-api/internal/pkg/validate"
	"github.com/review-auth-api/internal/transport/http/middleware"
)

// UserResolver resolves the authenticated user behind a token subject.
type UserResolver interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

// InviteHandler handles reviewer-invite endpoints.
type InviteHandler struct {
	invites   invite.Service
	decisions decision.Service
	users     UserResolver
}

func NewInviteHandler(invites invite.Service, decisions decision.Service, users UserResolver) *InviteHandler {
	return &InviteHandler{invites: invites, decisions: decisions, users: users}
}

// Propose creates an invite for the article in the URL and emails the link.
func (h *InviteHandler) Propose(w http.ResponseWriter, r *http.Request) {
	articleID := chi.URLParam(r, "id")
	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid email")
		return
	}
	if err := h.invites.Propose(r.Context(), req.Email, articleID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "invitation sent"})
}

// Resolve previews an invite without consuming it.
func (h *InviteHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	rawToken := r.URL.Query().Get("token")
	if rawToken == "" {
		writeError(w, http.StatusBadRequest, "token required")
		return
	}
	res, err := h.invites.Resolve(r.Context(), rawToken)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *InviteHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, decision.DecisionAccept)
}

func (h *InviteHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, decision.DecisionDecline)
}

func (h *InviteHandler) decide(w http.ResponseWriter, r *http.Request, verdict string) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	rawToken := r.URL.Query().Get("token")
	if rawToken == "" {
		writeError(w, http.StatusBadRequest, "token required")
		return
	}
	caller, err := h.users.Get(r.Context(), claims.Subject)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	outcome, err := h.decisions.Decide(r.Context(), caller.Email, rawToken, verdict)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}
