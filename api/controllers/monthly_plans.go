package controllers

import (
	"net/http"

	"github.com/medhealth/fieldforce-backend/api/responses"
	"github.com/medhealth/fieldforce-backend/api/validators"
	"github.com/medhealth/fieldforce-backend/internal/monthlyplans"
	"github.com/medhealth/fieldforce-backend/pkg/logger"
)

// CreateMonthlyPlan creates the monthly plan and all of its visit plans in
// one transaction.
func CreateMonthlyPlan(svc monthlyplans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "monthly plans")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		var body monthlyplans.CreateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		monthly, err := svc.Create(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusCreated, "Monthly plan created successfully", monthly)
	}
}

func ListMonthlyPlans(svc monthlyplans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "monthly plans")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		list, err := svc.List(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func CurrentMonthlyPlan(svc monthlyplans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "monthly plans")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		monthly, err := svc.Current(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, monthly)
	}
}

func GetMonthlyPlan(svc monthlyplans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "monthly plans")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.PathUUID(r, "monthlyPlanId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		monthly, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, monthly)
	}
}

func DeleteMonthlyPlan(svc monthlyplans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "monthly plans")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.PathUUID(r, "monthlyPlanId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), actor, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "Monthly plan deleted successfully", nil)
	}
}
