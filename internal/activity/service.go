// Package activity maintains the bounded recent-activity feed of each user.
package activity

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medhealth/fieldforce-backend/pkg/db/models"
	"github.com/medhealth/fieldforce-backend/pkg/enums"
	pkgerrors "github.com/medhealth/fieldforce-backend/pkg/errors"
	"github.com/medhealth/fieldforce-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Entry is a feed item to record.
type Entry struct {
	UserID      uuid.UUID
	Type        enums.ActivityType
	Description string
}

// Recorder appends feed items, optionally inside a caller-owned transaction.
type Recorder interface {
	Record(ctx context.Context, entry Entry) (*models.Activity, error)
	RecordTx(ctx context.Context, tx *gorm.DB, entry Entry) (*models.Activity, error)
}

// Service exposes the activity feed.
type Service interface {
	Recorder
	Recent(ctx context.Context, userID uuid.UUID, limit int) ([]models.Activity, error)
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ListResult, error)
}

// ListResult is one page of the activity log.
type ListResult struct {
	Items  []models.Activity `json:"items"`
	Cursor string            `json:"cursor"`
}

type service struct {
	repo      Repository
	tx        txRunner
	retention int
}

// NewService builds the activity service. retention is the number of rows
// kept per user.
func NewService(repo Repository, tx txRunner, retention int) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "activity repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if retention <= 0 {
		retention = 20
	}
	return &service{repo: repo, tx: tx, retention: retention}, nil
}

func (s *service) Record(ctx context.Context, entry Entry) (*models.Activity, error) {
	var out *models.Activity
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		row, err := s.RecordTx(ctx, tx, entry)
		out = row
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) RecordTx(ctx context.Context, tx *gorm.DB, entry Entry) (*models.Activity, error) {
	if entry.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !entry.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid activity type")
	}
	description := strings.TrimSpace(entry.Description)
	if description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description required")
	}

	repo := s.repo.WithTx(tx)
	row := &models.Activity{
		ID:          uuid.New(),
		UserID:      entry.UserID,
		Type:        entry.Type,
		Description: description,
	}
	if err := repo.Create(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record activity")
	}
	if _, err := repo.Prune(ctx, entry.UserID, s.retention); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "prune activity")
	}
	return row, nil
}

func (s *service) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]models.Activity, error) {
	if limit <= 0 || limit > s.retention {
		limit = s.retention
	}
	rows, err := s.repo.Recent(ctx, userID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recent activity")
	}
	if rows == nil {
		rows = []models.Activity{}
	}
	return rows, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.List(ctx, userID, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list activity")
	}
	if rows == nil {
		rows = []models.Activity{}
	}
	result := &ListResult{Items: rows}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}
