// Package holidays runs the leave request workflow: submission with notice
// and allowance checks, multi-approver decisions and the yearly balance.
package holidays

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medhealth/fieldforce-backend/internal/access"
	"github.com/medhealth/fieldforce-backend/internal/notifications"
	"github.com/medhealth/fieldforce-backend/internal/users"
	"github.com/medhealth/fieldforce-backend/pkg/config"
	"github.com/medhealth/fieldforce-backend/pkg/db"
	"github.com/medhealth/fieldforce-backend/pkg/db/models"
	"github.com/medhealth/fieldforce-backend/pkg/enums"
	pkgerrors "github.com/medhealth/fieldforce-backend/pkg/errors"
	"github.com/medhealth/fieldforce-backend/pkg/logger"
	"github.com/medhealth/fieldforce-backend/pkg/metrics"
	"github.com/medhealth/fieldforce-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the holiday workflow.
type Service interface {
	Request(ctx context.Context, actor access.Actor, input RequestInput) (*HolidayDTO, error)
	Decide(ctx context.Context, actor access.Actor, holidayID uuid.UUID, input DecisionInput) (*HolidayDTO, error)
	Remaining(ctx context.Context, actor access.Actor) (*Remaining, error)
	ListOwn(ctx context.Context, actor access.Actor) ([]HolidayDTO, error)
	ListForUser(ctx context.Context, actor access.Actor, userID uuid.UUID) ([]HolidayDTO, error)
	Get(ctx context.Context, actor access.Actor, id uuid.UUID) (*HolidayDTO, error)
}

// ServiceParams groups the dependencies of the holidays service.
type ServiceParams struct {
	Repo          Repository
	Users         users.Repository
	Notifications notifications.Repository
	Tx            txRunner
	Config        config.HolidayConfig
	Metrics       *metrics.Workflow
	Logger        *logger.Logger
}

type service struct {
	repo          Repository
	users         users.Repository
	notifications notifications.Repository
	tx            txRunner
	cfg           config.HolidayConfig
	metrics       *metrics.Workflow
	logg          *logger.Logger
	now           func() time.Time
}

// NewService builds the holidays service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "holidays repository required")
	case params.Users == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	case params.Notifications == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	case params.Tx == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	case params.Config.RequiredApprovals <= 0:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "required approvals must be positive")
	}
	return &service{
		repo:          params.Repo,
		users:         params.Users,
		notifications: params.Notifications,
		tx:            params.Tx,
		cfg:           params.Config,
		metrics:       params.Metrics,
		logg:          params.Logger,
		now:           func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Request(ctx context.Context, actor access.Actor, input RequestInput) (*HolidayDTO, error) {
	reason := strings.TrimSpace(input.Reason)
	switch {
	case input.StartDate.IsZero() || input.EndDate.IsZero():
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "startDate and endDate are required")
	case input.EndDate.Before(input.StartDate.Time):
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "endDate must not be before startDate")
	case input.Days < 1:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "days must be at least 1")
	case reason == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}

	now := s.now()
	var (
		request *models.HolidayRequest
		sent    []*models.Notification
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if input.StartDate.Sub(now) < s.cfg.MinNotice() {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "holiday requests need at least %d hours notice", s.cfg.MinNoticeHours)
		}
		userRepo := s.users.WithTx(tx)
		requester, err := userRepo.FindByID(ctx, actor.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load requester")
		}
		if requester.HolidaysTaken+input.Days >= s.cfg.YearlyCap {
			return pkgerrors.New(pkgerrors.CodeValidation, "holiday allowance exceeded").
				WithDetails(map[string]any{"taken": requester.HolidaysTaken, "requested": input.Days, "yearlyCap": s.cfg.YearlyCap})
		}
		hr, err := userRepo.FirstByRole(ctx, enums.UserRoleHR)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "no HR user to review the request")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load HR user")
		}

		request = &models.HolidayRequest{
			ID:        uuid.New(),
			UserID:    requester.ID,
			StartDate: input.StartDate.Time,
			EndDate:   input.EndDate.Time,
			Days:      input.Days,
			Reason:    reason,
			Status:    enums.HolidayStatusPending,
		}
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create holiday request")
		}

		recipients := []uuid.UUID{}
		if requester.LineManagerID != nil {
			recipients = append(recipients, *requester.LineManagerID)
		}
		if requester.LineManagerID == nil || *requester.LineManagerID != hr.ID {
			recipients = append(recipients, hr.ID)
		}
		notifier := s.notifications.WithTx(tx)
		for _, recipient := range recipients {
			n := notifications.Build(notifications.Draft{
				RecipientID: recipient,
				SenderID:    &requester.ID,
				Type:        enums.NotificationTypeHolidayRequest,
				Title:       "New Holiday Request",
				Message:     fmt.Sprintf("A new holiday request has been created by %s", requester.Name),
				Priority:    enums.NotificationPriorityUrgent,
				ActionURL:   "/holiday-details/" + request.ID.String(),
				Metadata:    map[string]any{"holidayId": request.ID.String()},
			})
			if err := notifier.Create(ctx, n); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "notify reviewers")
			}
			sent = append(sent, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, n := range sent {
		s.metrics.NotificationCreated(string(n.Type))
	}
	return s.Get(ctx, actor, request.ID)
}

func (s *service) Decide(ctx context.Context, actor access.Actor, holidayID uuid.UUID, input DecisionInput) (*HolidayDTO, error) {
	decision, err := enums.ParseHolidayDecision(strings.TrimSpace(input.Status))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "status must be approved or rejected")
	}
	if actor.Role == enums.UserRoleRepresentative {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "representatives cannot decide holiday requests")
	}

	now := s.now()
	var (
		final    enums.HolidayStatus
		notified *models.Notification
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		touched, err := repo.TouchPending(ctx, holidayID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock holiday request")
		}
		request, err := repo.FindByID(ctx, holidayID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "holiday request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load holiday request")
		}
		if touched == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "holiday request already finalized").
				WithDetails(map[string]any{"status": request.Status})
		}
		if actor.Is(request.UserID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "cannot decide your own holiday request")
		}

		vote := &models.HolidayApproval{
			ID:         uuid.New(),
			HolidayID:  request.ID,
			ApproverID: actor.ID,
			Decision:   decision,
		}
		if err := repo.AddApproval(ctx, vote); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "you already decided this request")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record decision")
		}

		final = enums.HolidayStatusPending
		switch decision {
		case enums.HolidayDecisionRejected:
			changed, err := repo.FinalizePending(ctx, request.ID, enums.HolidayStatusRejected, now)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject holiday request")
			}
			if changed == 1 {
				final = enums.HolidayStatusRejected
			}
		case enums.HolidayDecisionApproved:
			approvals, err := repo.CountApprovals(ctx, request.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count approvals")
			}
			if approvals != int64(s.cfg.RequiredApprovals) {
				break
			}
			changed, err := repo.FinalizePending(ctx, request.ID, enums.HolidayStatusApproved, now)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve holiday request")
			}
			if changed != 1 {
				break
			}
			if err := s.users.WithTx(tx).AddHolidaysTaken(ctx, request.UserID, request.Days); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update holidays taken")
			}
			final = enums.HolidayStatusApproved
		}

		if final == enums.HolidayStatusPending {
			return nil
		}
		notified = notifications.Build(notifications.Draft{
			RecipientID: request.UserID,
			SenderID:    &actor.ID,
			Type:        enums.NotificationTypeHolidayDecision,
			Title:       decisionTitle(final),
			Message: fmt.Sprintf("Your holiday request from %s to %s was %s",
				types.DateOf(request.StartDate), types.DateOf(request.EndDate), final),
			Priority:  enums.NotificationPriorityHigh,
			ActionURL: "/holiday-details/" + request.ID.String(),
			Metadata:  map[string]any{"holidayId": request.ID.String(), "status": string(final)},
		})
		if err := s.notifications.WithTx(tx).Create(ctx, notified); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "notify requester")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.HolidayDecision(string(decision), string(final))
	if notified != nil {
		s.metrics.NotificationCreated(string(notified.Type))
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"holiday_id": holidayID.String(),
			"decision":   string(decision),
			"status":     string(final),
		})
		s.logg.Info(logCtx, "holiday decision recorded")
	}
	return s.Get(ctx, actor, holidayID)
}

func (s *service) Remaining(ctx context.Context, actor access.Actor) (*Remaining, error) {
	user, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return &Remaining{
		YearlyCap: s.cfg.YearlyCap,
		Taken:     user.HolidaysTaken,
		Remaining: s.cfg.YearlyCap - user.HolidaysTaken,
	}, nil
}

func (s *service) ListOwn(ctx context.Context, actor access.Actor) ([]HolidayDTO, error) {
	return s.listFor(ctx, actor.ID)
}

func (s *service) ListForUser(ctx context.Context, actor access.Actor, userID uuid.UUID) ([]HolidayDTO, error) {
	if !actor.Is(userID) && actor.Role == enums.UserRoleRepresentative {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to view this user's holidays")
	}
	return s.listFor(ctx, userID)
}

func (s *service) Get(ctx context.Context, actor access.Actor, id uuid.UUID) (*HolidayDTO, error) {
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "holiday request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load holiday request")
	}
	if !actor.Is(request.UserID) && actor.Role == enums.UserRoleRepresentative {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to view this holiday request")
	}

	ids := []uuid.UUID{request.UserID}
	for _, a := range request.Approvals {
		ids = append(ids, a.ApproverID)
	}
	people, err := s.users.List(ctx, users.ListFilter{IDs: ids})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve approvers")
	}
	summaries := make(map[uuid.UUID]*users.Summary, len(people))
	for i := range people {
		summaries[people[i].ID] = users.SummaryOf(&people[i])
	}
	return fromModel(request, summaries), nil
}

func (s *service) listFor(ctx context.Context, userID uuid.UUID) ([]HolidayDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list holiday requests")
	}
	return fromModels(rows), nil
}

func decisionTitle(status enums.HolidayStatus) string {
	if status == enums.HolidayStatusApproved {
		return "Holiday Request Approved"
	}
	return "Holiday Request Rejected"
}
