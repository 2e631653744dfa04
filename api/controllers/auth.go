package controllers

import (
	"net/http"
	"time"

	"github.com/medhealth/fieldforce-backend/api/middleware"
	"github.com/medhealth/fieldforce-backend/api/responses"
	"github.com/medhealth/fieldforce-backend/api/validators"
	"github.com/medhealth/fieldforce-backend/internal/auth"
	"github.com/medhealth/fieldforce-backend/pkg/logger"
)

// CookiePolicy controls the access-token cookie set on login.
type CookiePolicy struct {
	Secure bool
	TTL    time.Duration
}

func (p CookiePolicy) set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(p.TTL.Seconds()),
	})
}

func (p CookiePolicy) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// AuthRegister creates a representative account and signs it in.
func AuthRegister(svc auth.Service, cookie CookiePolicy, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "auth")
			return
		}

		var body auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Register(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cookie.set(w, result.AccessToken)
		responses.WriteMessage(w, http.StatusCreated, "User registered successfully", result)
	}
}

// AuthLogin wires the login endpoint into the HTTP layer.
func AuthLogin(svc auth.Service, cookie CookiePolicy, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "auth")
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cookie.set(w, result.AccessToken)
		responses.WriteMessage(w, http.StatusOK, "Logged in successfully", result)
	}
}

// AuthLogout revokes the session of the presented token, if any, and clears
// the cookie.
func AuthLogout(svc auth.Service, cookie CookiePolicy, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "auth")
			return
		}

		if err := svc.Logout(r.Context(), middleware.AccessToken(r)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cookie.clear(w)
		responses.WriteMessage(w, http.StatusOK, "Logged out successfully", nil)
	}
}

// AuthRefresh rotates the refresh token and issues a new access token.
func AuthRefresh(svc auth.Service, cookie CookiePolicy, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "auth")
			return
		}

		var body auth.RefreshRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body.AccessToken = middleware.AccessToken(r)

		result, err := svc.Refresh(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cookie.set(w, result.AccessToken)
		responses.WriteSuccess(w, result)
	}
}
