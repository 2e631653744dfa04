package controllers

import (
	"net/http"

	"github.com/medhealth/fieldforce-backend/api/responses"
	"github.com/medhealth/fieldforce-backend/api/validators"
	"github.com/medhealth/fieldforce-backend/internal/kpi"
	"github.com/medhealth/fieldforce-backend/pkg/logger"
)

func UserKPI(svc kpi.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "kpi")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		userID, err := validators.PathUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ForUser(r.Context(), actor, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AllKPI(svc kpi.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "kpi")
			return
		}
		results, err := svc.ForAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, results)
	}
}

// CompletedVisits lists the caller's completed stops for a month. Missing
// month or year fall back to the current period.
func CompletedVisits(svc kpi.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "kpi")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		month, err := validators.ParseQueryInt(r, "month", 0, 1, 12)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		year, err := validators.ParseQueryInt(r, "year", 0, 2000, 2100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.CompletedVisits(r.Context(), actor, month, year)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// KPIStats returns the monthly trend for the path user, or for the caller
// when the route has no userId.
func KPIStats(svc kpi.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "kpi")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		target := actor.ID
		if hasPathParam(r, "userId") {
			id, err := validators.PathUUID(r, "userId")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			target = id
		}
		trend, err := svc.Trend(r.Context(), actor, target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, trend)
	}
}

func RecomputeUserKPI(svc kpi.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "kpi")
			return
		}
		userID, err := validators.PathUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Recompute(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "KPI recomputed", result)
	}
}

func RecomputeAllKPI(svc kpi.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "kpi")
			return
		}
		results, err := svc.RecomputeAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "KPI recomputed", results)
	}
}
