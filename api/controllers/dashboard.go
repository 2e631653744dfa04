package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/medhealth/fieldforce-backend/api/responses"
	"github.com/medhealth/fieldforce-backend/api/validators"
	"github.com/medhealth/fieldforce-backend/internal/dashboard"
	"github.com/medhealth/fieldforce-backend/pkg/logger"
	"github.com/medhealth/fieldforce-backend/pkg/types"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func GetDashboard(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "dashboard")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		view, err := svc.Get(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func RecordDashboardActivity(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "dashboard")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		var body dashboard.ActivityInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entry, err := svc.RecordActivity(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}

func UpdateDashboardPreferences(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "dashboard")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		var body types.PreferencesPatch
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		prefs, err := svc.UpdatePreferences(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "Preferences updated successfully", prefs)
	}
}

// KPIReport buffers the whole workbook before any header is written.
func KPIReport(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "dashboard")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		var buf bytes.Buffer
		if err := svc.KPIReport(r.Context(), actor, &buf); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "kpi-report.xlsx"))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		if _, err := buf.WriteTo(w); err != nil {
			logg.Error(r.Context(), "failed to stream kpi report", err)
		}
	}
}
