package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medhealth/fieldforce-backend/api/middleware"
	"github.com/medhealth/fieldforce-backend/api/responses"
	"github.com/medhealth/fieldforce-backend/internal/access"
	pkgerrors "github.com/medhealth/fieldforce-backend/pkg/errors"
	"github.com/medhealth/fieldforce-backend/pkg/logger"
)

// callerOrFail returns the authenticated caller, writing a 401 when the
// request carries none.
func callerOrFail(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (access.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
		return access.Actor{}, false
	}
	return actor, true
}

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable"))
}

func hasPathParam(r *http.Request, name string) bool {
	return chi.URLParam(r, name) != ""
}
