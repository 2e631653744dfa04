package locations

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medhealth/fieldforce-backend/pkg/db/models"
)

// LocationDTO is the transport shape of a location.
type LocationDTO struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Name      string    `json:"locationName"`
	Address   string    `json:"address"`
	State     string    `json:"state"`
	City      string    `json:"city"`
	Village   *string   `json:"village,omitempty"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LocationInput is the create/replace body of a location.
type LocationInput struct {
	Name      string   `json:"locationName" validate:"required,max=200"`
	Address   string   `json:"address" validate:"required,max=255"`
	State     string   `json:"state" validate:"required,max=120"`
	City      string   `json:"city" validate:"required,max=120"`
	Village   *string  `json:"village" validate:"omitempty,max=120"`
	Latitude  *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"required,min=-180,max=180"`
}

// ImportResult reports the outcome of a spreadsheet import.
type ImportResult struct {
	Created int `json:"created"`
}

// FromModel converts a location row to its DTO.
func FromModel(l *models.Location) *LocationDTO {
	if l == nil {
		return nil
	}
	return &LocationDTO{
		ID:        l.ID,
		UserID:    l.UserID,
		Name:      l.Name,
		Address:   l.Address,
		State:     l.State,
		City:      l.City,
		Village:   l.Village,
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

func fromModels(rows []models.Location) []LocationDTO {
	out := make([]LocationDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}

func (in LocationInput) normalized() LocationInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	in.State = strings.TrimSpace(in.State)
	in.City = strings.TrimSpace(in.City)
	if in.Village != nil {
		v := strings.TrimSpace(*in.Village)
		if v == "" {
			in.Village = nil
		} else {
			in.Village = &v
		}
	}
	return in
}
