package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes регистрирует API. authenticated - middleware проверки access-токена.
func Routes(router chi.Router, auth *AuthenticationHandler, users *UserHandler, authenticated func(http.Handler) http.Handler) {
	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", auth.Register)
			r.Post("/login", auth.Login)
			r.Post("/logout", auth.Logout)
			r.Post("/refresh-tokens", auth.RefreshTokens)
			r.Post("/forgot-password", auth.ForgotPassword)
			r.Post("/reset-password", auth.ResetPassword)
			r.Post("/verify-email", auth.VerifyEmail)

			r.Group(func(r chi.Router) {
				r.Use(authenticated)
				r.Post("/send-verification-email", auth.SendVerificationEmail)
				r.Get("/me", auth.GetCurrentUser)
				r.Post("/tokens/blacklist", auth.BlacklistToken)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Get("/users/{uuid}", users.GetUser)
		})
	})
}
