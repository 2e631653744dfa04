package holidays

import (
	"time"

	"github.com/google/uuid"

	"github.com/medhealth/fieldforce-backend/internal/users"
	"github.com/medhealth/fieldforce-backend/pkg/db/models"
	"github.com/medhealth/fieldforce-backend/pkg/enums"
	"github.com/medhealth/fieldforce-backend/pkg/types"
)

// RequestInput is the body of POST /holidays.
type RequestInput struct {
	StartDate types.Date `json:"startDate"`
	EndDate   types.Date `json:"endDate"`
	Days      int        `json:"days" validate:"required,min=1"`
	Reason    string     `json:"reason" validate:"required,max=1000"`
}

// DecisionInput is the body of PATCH /holidays/{holidayId}.
type DecisionInput struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

// Remaining is the yearly allowance summary. Remaining may be negative.
type Remaining struct {
	YearlyCap int `json:"yearlyCap"`
	Taken     int `json:"taken"`
	Remaining int `json:"remaining"`
}

type ApprovalDTO struct {
	ApproverID uuid.UUID             `json:"approverId"`
	Approver   *users.Summary        `json:"approver,omitempty"`
	Decision   enums.HolidayDecision `json:"decision"`
	CreatedAt  time.Time             `json:"createdAt"`
}

// HolidayDTO is the transport shape of a holiday request.
type HolidayDTO struct {
	ID        uuid.UUID           `json:"id"`
	UserID    uuid.UUID           `json:"userId"`
	User      *users.Summary      `json:"user,omitempty"`
	StartDate types.Date          `json:"startDate"`
	EndDate   types.Date          `json:"endDate"`
	Days      int                 `json:"days"`
	Reason    string              `json:"reason"`
	Status    enums.HolidayStatus `json:"status"`
	DecidedAt *time.Time          `json:"decidedAt,omitempty"`
	Approvals []ApprovalDTO       `json:"approvals"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

func fromModel(h *models.HolidayRequest, people map[uuid.UUID]*users.Summary) *HolidayDTO {
	dto := &HolidayDTO{
		ID:        h.ID,
		UserID:    h.UserID,
		User:      people[h.UserID],
		StartDate: types.DateOf(h.StartDate),
		EndDate:   types.DateOf(h.EndDate),
		Days:      h.Days,
		Reason:    h.Reason,
		Status:    h.Status,
		DecidedAt: h.DecidedAt,
		Approvals: make([]ApprovalDTO, 0, len(h.Approvals)),
		CreatedAt: h.CreatedAt,
		UpdatedAt: h.UpdatedAt,
	}
	for _, a := range h.Approvals {
		dto.Approvals = append(dto.Approvals, ApprovalDTO{
			ApproverID: a.ApproverID,
			Approver:   people[a.ApproverID],
			Decision:   a.Decision,
			CreatedAt:  a.CreatedAt,
		})
	}
	return dto
}

func fromModels(rows []models.HolidayRequest) []HolidayDTO {
	out := make([]HolidayDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *fromModel(&rows[i], nil))
	}
	return out
}
