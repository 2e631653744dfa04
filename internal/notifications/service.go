package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medhealth/fieldforce-backend/pkg/db/models"
	"github.com/medhealth/fieldforce-backend/pkg/enums"
	pkgerrors "github.com/medhealth/fieldforce-backend/pkg/errors"
	"github.com/medhealth/fieldforce-backend/pkg/pagination"
)

// Service defines the recipient-facing notification operations.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Counts(ctx context.Context, recipientID uuid.UUID) (Counts, error)
	MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error)
	Archive(ctx context.Context, recipientID, notificationID uuid.UUID) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

// ListParams configures pagination for notifications.
type ListParams struct {
	RecipientID uuid.UUID
	Limit       int
	Cursor      string
	Status      string
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

// NewService wires notifications dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.RecipientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}

	query := listNotificationsParams{
		RecipientID: params.RecipientID,
		Limit:       pagination.NormalizeLimit(params.Limit),
		Now:         s.now(),
	}
	if params.Status != "" {
		status, err := enums.ParseNotificationStatus(params.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		query.Status = status
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	if rows == nil {
		rows = []models.Notification{}
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}

	return &ListResult{
		Items:  rows,
		Cursor: cursor,
	}, nil
}

func (s *service) Counts(ctx context.Context, recipientID uuid.UUID) (Counts, error) {
	if recipientID == uuid.Nil {
		return Counts{}, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}
	counts, err := s.repo.Counts(ctx, recipientID, s.now())
	if err != nil {
		return Counts{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count notifications")
	}
	return counts, nil
}

func (s *service) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error {
	return s.setStatus(ctx, recipientID, notificationID, enums.NotificationStatusRead)
}

func (s *service) Archive(ctx context.Context, recipientID, notificationID uuid.UUID) error {
	return s.setStatus(ctx, recipientID, notificationID, enums.NotificationStatusArchived)
}

func (s *service) setStatus(ctx context.Context, recipientID, notificationID uuid.UUID, status enums.NotificationStatus) error {
	if recipientID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.SetStatus(ctx, recipientID, notificationID, status, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update notification")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	if recipientID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}

	count, err := s.repo.MarkAllRead(ctx, recipientID, s.now())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}
