package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/review-auth-api/internal/application/decision"
	"github.com/review-auth-api/internal/application/invite"
	"github.com/review-auth-api/internal/application/magiclink"
	"github.com/review-auth-api/internal/application/token"
	"github.com/review-auth-api/internal/config"
	"github.com/review-auth-api/internal/domain"
	"github.com/review-auth-api/internal/transport/http/handler"
	appmiddleware "github.com/review-auth-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10, applied to the code-sending endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	magicSvc := magiclink.NewService(magiclink.ServiceDeps{
		UserRepo:        deps.UserRepo,
		KV:              deps.KV,
		Mailer:          deps.Mailer,
		FrontendBaseURL: cfg.FrontendBaseURL,
	})
	tokenSvc := token.NewService(token.ServiceDeps{
		Signer:     deps.JWTProvider,
		KV:         deps.KV,
		UserRepo:   deps.UserRepo,
		RefreshTTL: cfg.RefreshTokenTTL,
	})
	inviteSvc := invite.NewService(invite.ServiceDeps{
		Invites:         deps.InviteRepo,
		Mailer:          deps.Mailer,
		FrontendBaseURL: cfg.FrontendBaseURL,
	})
	decisionSvc := decision.NewService(decision.ServiceDeps{
		Invites:   inviteSvc,
		Articles:  deps.ArticleRepo,
		Publisher: deps.Publisher,
	})

	authMw := appmiddleware.Auth(tokenSvc)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(magicSvc, tokenSvc)
	inviteH := handler.NewInviteHandler(inviteSvc, decisionSvc, deps.UserRepo)
	manuscriptH := handler.NewManuscriptHandler(deps.ArticleRepo, deps.S3Store)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check", healthH.Check)
		r.With(sensitiveRL.Limit).Post("/auth/signup", authH.SignUp)
		r.With(sensitiveRL.Limit).Post("/auth/signin", authH.SignIn)
		r.With(sensitiveRL.Limit).Post("/auth/resend-code", authH.Resend)
		r.With(sensitiveRL.Limit).Post("/auth/verify", authH.Verify)
		r.Post("/auth/refresh", authH.Refresh)
		r.Get("/reviewer-invites/resolve", inviteH.Resolve)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Post("/auth/signout", authH.SignOut)
			r.Get("/articles/{id}/manuscript", manuscriptH.Download)

			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleReviewer))

				r.Post("/reviewer-invites/accept", inviteH.Accept)
				r.Post("/reviewer-invites/decline", inviteH.Decline)
			})

			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleEditor, domain.RoleAdmin))

				r.Post("/articles/{id}/reviewer-invites", inviteH.Propose)
			})
		})
	})

	return r
}
