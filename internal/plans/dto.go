package plans

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medhealth/fieldforce-backend/internal/locations"
	"github.com/medhealth/fieldforce-backend/internal/users"
	"github.com/medhealth/fieldforce-backend/pkg/db/models"
	"github.com/medhealth/fieldforce-backend/pkg/enums"
	"github.com/medhealth/fieldforce-backend/pkg/types"
)

// PlanInput is the create body of a visit plan. Monthly plans reuse it for
// each of their plan specs.
type PlanInput struct {
	VisitDate types.Date          `json:"visitDate"`
	Type      enums.PlanType      `json:"type" validate:"omitempty,plantype"`
	Region    string              `json:"region" validate:"required,max=200"`
	Locations []uuid.UUID         `json:"locations" validate:"required,min=1"`
	Tasks     []string            `json:"tasks" validate:"omitempty,dive,max=500"`
	Notes     []LocationNoteInput `json:"notes" validate:"omitempty,dive"`
}

// LocationNoteInput is the owner's note about one stop.
type LocationNoteInput struct {
	LocationID uuid.UUID `json:"locationId"`
	Note       string    `json:"note" validate:"required,max=2000"`
}

// UpdatePlanInput patches a plan. Absent fields are left untouched; present
// lists replace the stored ones.
type UpdatePlanInput struct {
	VisitDate *types.Date          `json:"visitDate"`
	Type      *enums.PlanType      `json:"type" validate:"omitempty,plantype"`
	Region    *string              `json:"region" validate:"omitempty,max=200"`
	Locations *[]uuid.UUID         `json:"locations"`
	Tasks     *[]string            `json:"tasks"`
	Notes     *[]LocationNoteInput `json:"notes"`
}

// Coordinates is the body of the start and complete visit transitions.
type Coordinates struct {
	Latitude  *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"required,min=-180,max=180"`
}

// TaskStatusInput is the body of a task transition.
type TaskStatusInput struct {
	Status string `json:"status" validate:"required,oneof=pending completed"`
}

// ManagerNoteInput is the body of a manager note.
type ManagerNoteInput struct {
	LocationID uuid.UUID `json:"locationId"`
	Note       string    `json:"note" validate:"required,max=2000"`
}

// ListQuery carries the optional filters of the own-plans listing. Type is
// kept raw so unknown values can yield an empty result.
type ListQuery struct {
	Type      string
	Date      *types.Date
	StartDate *types.Date
	EndDate   *types.Date
	Keyword   string
}

// RangeQuery is an inclusive day range; either end may be open.
type RangeQuery struct {
	StartDate *types.Date
	EndDate   *types.Date
}

// PlanDTO is the transport shape of a visit plan.
type PlanDTO struct {
	ID        uuid.UUID         `json:"id"`
	UserID    uuid.UUID         `json:"userId"`
	User      *users.Summary    `json:"user,omitempty"`
	Type      enums.PlanType    `json:"type"`
	Region    string            `json:"region"`
	VisitDate types.Date        `json:"visitDate"`
	Locations []PlanLocationDTO `json:"locations"`
	Tasks     []PlanTaskDTO     `json:"tasks"`
	Notes     []PlanNoteDTO     `json:"notes"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// PlanLocationDTO is one stop of a plan.
type PlanLocationDTO struct {
	ID             uuid.UUID              `json:"id"`
	LocationID     uuid.UUID              `json:"locationId"`
	Location       *locations.LocationDTO `json:"location,omitempty"`
	Position       int                    `json:"position"`
	Status         enums.VisitStatus      `json:"status"`
	StartLatitude  *float64               `json:"startLatitude"`
	StartLongitude *float64               `json:"startLongitude"`
	StartedAt      *time.Time             `json:"startedAt"`
	EndLatitude    *float64               `json:"endLatitude"`
	EndLongitude   *float64               `json:"endLongitude"`
	CompletedAt    *time.Time             `json:"completedAt"`
}

type PlanTaskDTO struct {
	ID       uuid.UUID        `json:"id"`
	Title    string           `json:"title"`
	Status   enums.TaskStatus `json:"status"`
	Position int              `json:"position"`
}

type PlanNoteDTO struct {
	ID         uuid.UUID      `json:"id"`
	LocationID *uuid.UUID     `json:"locationId"`
	AuthorID   *uuid.UUID     `json:"authorId,omitempty"`
	Role       enums.NoteRole `json:"role"`
	Body       string         `json:"note"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// FromModel converts a plan row with its preloaded children.
func FromModel(p *models.VisitPlan) *PlanDTO {
	if p == nil {
		return nil
	}
	dto := &PlanDTO{
		ID:        p.ID,
		UserID:    p.UserID,
		Type:      p.Type,
		Region:    p.Region,
		VisitDate: types.DateOf(p.VisitDate),
		Locations: make([]PlanLocationDTO, 0, len(p.Locations)),
		Tasks:     make([]PlanTaskDTO, 0, len(p.Tasks)),
		Notes:     make([]PlanNoteDTO, 0, len(p.Notes)),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	for _, e := range p.Locations {
		dto.Locations = append(dto.Locations, PlanLocationDTO{
			ID:             e.ID,
			LocationID:     e.LocationID,
			Location:       locations.FromModel(e.Location),
			Position:       e.Position,
			Status:         e.Status,
			StartLatitude:  e.StartLatitude,
			StartLongitude: e.StartLongitude,
			StartedAt:      e.StartedAt,
			EndLatitude:    e.EndLatitude,
			EndLongitude:   e.EndLongitude,
			CompletedAt:    e.CompletedAt,
		})
	}
	for _, t := range p.Tasks {
		dto.Tasks = append(dto.Tasks, PlanTaskDTO{ID: t.ID, Title: t.Title, Status: t.Status, Position: t.Position})
	}
	for _, n := range p.Notes {
		dto.Notes = append(dto.Notes, PlanNoteDTO{
			ID:         n.ID,
			LocationID: n.LocationID,
			AuthorID:   n.AuthorID,
			Role:       n.Role,
			Body:       n.Body,
			CreatedAt:  n.CreatedAt,
		})
	}
	return dto
}

// FromModels converts a list of plans, never returning nil.
func FromModels(rows []models.VisitPlan) []PlanDTO {
	out := make([]PlanDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}

func cleanTasks(titles []string) []string {
	out := make([]string, 0, len(titles))
	for _, title := range titles {
		if trimmed := strings.TrimSpace(title); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
