package controllers

import (
	"net/http"

	"github.com/medhealth/fieldforce-backend/api/responses"
	"github.com/medhealth/fieldforce-backend/api/validators"
	"github.com/medhealth/fieldforce-backend/internal/holidays"
	"github.com/medhealth/fieldforce-backend/pkg/logger"
)

func RequestHoliday(svc holidays.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "holidays")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		var body holidays.RequestInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		holiday, err := svc.Request(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusCreated, "Holiday request submitted", holiday)
	}
}

// DecideHoliday records the caller's approval or rejection.
func DecideHoliday(svc holidays.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "holidays")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.PathUUID(r, "holidayId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body holidays.DecisionInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		holiday, err := svc.Decide(r.Context(), actor, id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "Holiday decision recorded", holiday)
	}
}

func RemainingHolidays(svc holidays.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "holidays")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		remaining, err := svc.Remaining(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, remaining)
	}
}

func ListHolidays(svc holidays.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "holidays")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		list, err := svc.ListOwn(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func ListUserHolidays(svc holidays.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "holidays")
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
		list, err := svc.ListForUser(r.Context(), actor, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func GetHoliday(svc holidays.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "holidays")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.PathUUID(r, "holidayId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		holiday, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, holiday)
	}
}
