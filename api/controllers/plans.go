package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/medhealth/fieldforce-backend/api/responses"
	"github.com/medhealth/fieldforce-backend/api/validators"
	"github.com/medhealth/fieldforce-backend/internal/plans"
	pkgerrors "github.com/medhealth/fieldforce-backend/pkg/errors"
	"github.com/medhealth/fieldforce-backend/pkg/logger"
)

func CreatePlan(svc plans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "plans")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		var body plans.PlanInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		plan, err := svc.Create(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusCreated, "Plan created successfully", plan)
	}
}

// ListPlans serves the filtered own-plans listing.
func ListPlans(svc plans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "plans")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		query := plans.ListQuery{
			Type:    strings.TrimSpace(r.URL.Query().Get("type")),
			Keyword: validators.SanitizeString(r.URL.Query().Get("keyword"), 200),
		}
		var err error
		if query.Date, err = validators.ParseQueryDate(r, "date"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if query.StartDate, err = validators.ParseQueryDate(r, "startDate"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if query.EndDate, err = validators.ParseQueryDate(r, "endDate"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), actor, query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ListAllPlans returns every plan of the caller without filters.
func ListAllPlans(svc plans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "plans")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		list, err := svc.List(r.Context(), actor, plans.ListQuery{})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func ListPlansByDate(svc plans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "plans")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		day, err := validators.ParseQueryDate(r, "date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if day == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "date is required"))
			return
		}
		list, err := svc.ListByDate(r.Context(), actor, *day)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func ListCurrentMonthPlans(svc plans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "plans")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		list, err := svc.ListCurrentMonth(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ListPlansUnderMe returns plans of everyone below the caller.
func ListPlansUnderMe(svc plans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "plans")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		var query plans.RangeQuery
		var err error
		if query.StartDate, err = validators.ParseQueryDate(r, "startDate"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if query.EndDate, err = validators.ParseQueryDate(r, "endDate"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListUnderMe(r.Context(), actor, query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func GetPlan(svc plans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "plans")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.PathUUID(r, "planId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		plan, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, plan)
	}
}

func UpdatePlan(svc plans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "plans")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.PathUUID(r, "planId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body plans.UpdatePlanInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		plan, err := svc.Update(r.Context(), actor, id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "Plan updated successfully", plan)
	}
}

func DeletePlan(svc plans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "plans")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.PathUUID(r, "planId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), actor, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "Plan deleted successfully", nil)
	}
}

func StartVisit(svc plans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "plans")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		planID, locationID, err := planStop(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body plans.Coordinates
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		plan, err := svc.StartVisit(r.Context(), actor, planID, locationID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "Visit started", plan)
	}
}

func CompleteVisit(svc plans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "plans")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		planID, locationID, err := planStop(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body plans.Coordinates
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		plan, err := svc.CompleteVisit(r.Context(), actor, planID, locationID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "Visit completed", plan)
	}
}

func UnvisitLocation(svc plans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "plans")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		planID, locationID, err := planStop(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		plan, err := svc.UnvisitLocation(r.Context(), actor, planID, locationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "Visit reset", plan)
	}
}

func SetTaskStatus(svc plans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "plans")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		planID, err := validators.PathUUID(r, "planId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		taskID, err := validators.PathUUID(r, "taskId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body plans.TaskStatusInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		plan, err := svc.SetTaskStatus(r.Context(), actor, planID, taskID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "Task updated successfully", plan)
	}
}

func AddManagerNote(svc plans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "plans")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		planID, err := validators.PathUUID(r, "planId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body plans.ManagerNoteInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		plan, err := svc.AddManagerNote(r.Context(), actor, planID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "Note added successfully", plan)
	}
}

func planStop(r *http.Request) (planID, locationID uuid.UUID, err error) {
	planID, err = validators.PathUUID(r, "planId")
	if err != nil {
		return planID, locationID, err
	}
	locationID, err = validators.PathUUID(r, "locationId")
	return planID, locationID, err
}
