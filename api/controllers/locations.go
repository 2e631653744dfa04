package controllers

import (
	"net/http"

	"github.com/medhealth/fieldforce-backend/api/responses"
	"github.com/medhealth/fieldforce-backend/api/validators"
	"github.com/medhealth/fieldforce-backend/internal/locations"
	pkgerrors "github.com/medhealth/fieldforce-backend/pkg/errors"
	"github.com/medhealth/fieldforce-backend/pkg/logger"
)

const maxImportUpload = 10 << 20

func CreateLocation(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "locations")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		var body locations.LocationInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		location, err := svc.Create(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusCreated, "Location created successfully", location)
	}
}

// ListLocations returns the caller's locations, or another owner's when
// userId is given and the caller is back office.
func ListLocations(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "locations")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		ownerID, err := validators.ParseQueryUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), actor, ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func GetLocation(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "locations")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.PathUUID(r, "locationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		location, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, location)
	}
}

func UpdateLocation(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "locations")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.PathUUID(r, "locationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body locations.LocationInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		location, err := svc.Update(r.Context(), actor, id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "Location updated successfully", location)
	}
}

func DeleteLocation(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "locations")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.PathUUID(r, "locationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), actor, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "Location deleted successfully", nil)
	}
}

// ImportLocations accepts a multipart "file" spreadsheet upload.
func ImportLocations(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "locations")
			return
		}
		actor, ok := callerOrFail(w, r, logg)
		if !ok {
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxImportUpload)
		if err := r.ParseMultipartForm(maxImportUpload); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart upload"))
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "file is required"))
			return
		}
		defer func() { _ = file.Close() }()

		result, err := svc.Import(r.Context(), actor, header.Filename, file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusCreated, "Locations imported successfully", result)
	}
}
