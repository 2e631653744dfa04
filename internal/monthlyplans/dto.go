package monthlyplans

import (
	"time"

	"github.com/google/uuid"

	"github.com/medhealth/fieldforce-backend/internal/plans"
	"github.com/medhealth/fieldforce-backend/pkg/db/models"
	"github.com/medhealth/fieldforce-backend/pkg/types"
)

// CreateInput is the body of POST /monthly-plans.
type CreateInput struct {
	StartDate types.Date        `json:"startDate"`
	EndDate   types.Date        `json:"endDate"`
	Notes     *string           `json:"notes" validate:"omitempty,max=2000"`
	Plans     []plans.PlanInput `json:"plans" validate:"required,min=1,dive"`
}

// MonthlyPlanDTO is a monthly plan with its visit plans populated in order.
type MonthlyPlanDTO struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"userId"`
	StartDate types.Date      `json:"startDate"`
	EndDate   types.Date      `json:"endDate"`
	Notes     *string         `json:"notes,omitempty"`
	Plans     []plans.PlanDTO `json:"plans"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func fromModel(m *models.MonthlyPlan, visits []models.VisitPlan) *MonthlyPlanDTO {
	byID := make(map[uuid.UUID]*models.VisitPlan, len(visits))
	for i := range visits {
		byID[visits[i].ID] = &visits[i]
	}
	ordered := make([]plans.PlanDTO, 0, len(m.Entries))
	for _, entry := range m.Entries {
		if visit, ok := byID[entry.PlanID]; ok {
			ordered = append(ordered, *plans.FromModel(visit))
		}
	}
	return &MonthlyPlanDTO{
		ID:        m.ID,
		UserID:    m.UserID,
		StartDate: types.DateOf(m.StartDate),
		EndDate:   types.DateOf(m.EndDate),
		Notes:     m.Notes,
		Plans:     ordered,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func planIDs(m *models.MonthlyPlan) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(m.Entries))
	for _, entry := range m.Entries {
		out = append(out, entry.PlanID)
	}
	return out
}
