package http

import (
	"net/http"

	"github.com/go-auth-2fa/internal/application/auth"
	"github.com/go-auth-2fa/internal/application/user"
	"github.com/go-auth-2fa/internal/config"
	jwtinfra "github.com/go-auth-2fa/internal/infrastructure/jwt"
	"github.com/go-auth-2fa/internal/transport/http/handler"
	appmiddleware "github.com/go-auth-2fa/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo   UserRepository
	Hasher     PasswordHasher
	Lockout    LockoutTracker
	Challenges ChallengeCache
	Notifier   Notifier
	Tokens     TokenProvider
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", appmiddleware.AdminKeyHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10, per client IP. Forwarding headers
	// count only when the connection comes from a trusted proxy.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10, cfg.TrustedProxies)

	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo:   deps.UserRepo,
		Hasher:     deps.Hasher,
		Lockout:    deps.Lockout,
		Challenges: deps.Challenges,
		Notifier:   deps.Notifier,
		CodeTTL:    cfg.OTPTTL,
	})
	userSvc := user.NewService(user.ServiceDeps{
		UserRepo: deps.UserRepo,
		Hasher:   deps.Hasher,
		Lockout:  deps.Lockout,
	})

	healthH := handler.NewHealthHandler()
	sessionH := handler.NewSessionHandler(authSvc, userSvc, deps.Tokens)
	userH := handler.NewUserHandler(authSvc, userSvc)
	lockoutH := handler.NewLockoutHandler(authSvc)

	pendingAuth := appmiddleware.Auth(deps.Tokens, jwtinfra.StagePending)
	fullAuth := appmiddleware.Auth(deps.Tokens, jwtinfra.StageFull)

	r.Route("/v1", func(r chi.Router) {
		// Public routes
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/users", userH.Register)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)

		// Second factor: pending token only
		r.With(sensitiveRL.Limit, pendingAuth).Post("/sessions/verify-code", sessionH.VerifyCode)

		// Fully authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(fullAuth)

			r.Get("/sessions", sessionH.GetCurrent)
			r.Put("/users/me/second-factor", userH.SetSecondFactor)
			r.With(sensitiveRL.Limit).Put("/users/me/password", userH.ChangePassword)
		})

		// Operator routes
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.RequireAdminKey(cfg.AdminAPIKey))

			r.Post("/admin/lockouts/{email}/reset", lockoutH.Reset)
		})
	})

	return r
}
