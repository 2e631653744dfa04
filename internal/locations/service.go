// Package locations manages the geographic points representatives visit.
package locations

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/medhealth/fieldforce-backend/internal/access"
	"github.com/medhealth/fieldforce-backend/pkg/db/models"
	pkgerrors "github.com/medhealth/fieldforce-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes location registry operations.
type Service interface {
	Create(ctx context.Context, actor access.Actor, input LocationInput) (*LocationDTO, error)
	List(ctx context.Context, actor access.Actor, ownerID *uuid.UUID) ([]LocationDTO, error)
	Get(ctx context.Context, actor access.Actor, id uuid.UUID) (*LocationDTO, error)
	Update(ctx context.Context, actor access.Actor, id uuid.UUID, input LocationInput) (*LocationDTO, error)
	Delete(ctx context.Context, actor access.Actor, id uuid.UUID) error
	Import(ctx context.Context, actor access.Actor, filename string, file io.Reader) (*ImportResult, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds the locations service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "locations repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, actor access.Actor, input LocationInput) (*LocationDTO, error) {
	input = input.normalized()
	if problems := validateInput(input); len(problems) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid location").WithDetails(problems)
	}
	location := toModel(actor.ID, input)
	if err := s.repo.Create(ctx, location); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create location")
	}
	return FromModel(location), nil
}

func (s *service) List(ctx context.Context, actor access.Actor, ownerID *uuid.UUID) ([]LocationDTO, error) {
	owner := actor.ID
	if ownerID != nil && *ownerID != actor.ID {
		if !actor.HasRole(access.BackOffice...) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to list another user's locations")
		}
		owner = *ownerID
	}
	rows, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list locations")
	}
	return fromModels(rows), nil
}

func (s *service) Get(ctx context.Context, actor access.Actor, id uuid.UUID) (*LocationDTO, error) {
	location, err := s.authorized(ctx, s.repo, actor, id)
	if err != nil {
		return nil, err
	}
	return FromModel(location), nil
}

func (s *service) Update(ctx context.Context, actor access.Actor, id uuid.UUID, input LocationInput) (*LocationDTO, error) {
	input = input.normalized()
	if problems := validateInput(input); len(problems) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid location").WithDetails(problems)
	}
	location, err := s.authorized(ctx, s.repo, actor, id)
	if err != nil {
		return nil, err
	}
	updated := toModel(location.UserID, input)
	updated.ID = location.ID
	updated.CreatedAt = location.CreatedAt
	if err := s.repo.Save(ctx, updated); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update location")
	}
	return FromModel(updated), nil
}

func (s *service) Delete(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.authorized(ctx, repo, actor, id); err != nil {
			return err
		}
		refs, err := repo.CountPlanReferences(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count plan references")
		}
		if refs > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "location is used by visit plans").
				WithDetails(map[string]any{"plans": refs})
		}
		if err := repo.Delete(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete location")
		}
		return nil
	})
}

func (s *service) Import(ctx context.Context, actor access.Actor, filename string, file io.Reader) (*ImportResult, error) {
	grid, err := readSheet(file, filename)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable spreadsheet")
	}
	inputs, err := parseRows(grid)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "import contains invalid rows").
			WithDetails(rowErrors(err))
	}

	rows := make([]models.Location, 0, len(inputs))
	for _, input := range inputs {
		rows = append(rows, *toModel(actor.ID, input))
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).CreateBatch(ctx, rows); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "import locations")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ImportResult{Created: len(rows)}, nil
}

func (s *service) authorized(ctx context.Context, repo Repository, actor access.Actor, id uuid.UUID) (*models.Location, error) {
	location, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load location")
	}
	if !actor.Is(location.UserID) && !actor.HasRole(access.BackOffice...) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to access this location")
	}
	return location, nil
}

func rowErrors(err error) []RowError {
	var out []RowError
	for _, e := range multierr.Errors(err) {
		var rowErr RowError
		if errors.As(e, &rowErr) {
			out = append(out, rowErr)
			continue
		}
		out = append(out, RowError{Field: "file", Message: e.Error()})
	}
	return out
}

func toModel(ownerID uuid.UUID, input LocationInput) *models.Location {
	location := &models.Location{
		ID:      uuid.New(),
		UserID:  ownerID,
		Name:    input.Name,
		Address: input.Address,
		State:   input.State,
		City:    input.City,
		Village: input.Village,
	}
	if input.Latitude != nil {
		location.Latitude = *input.Latitude
	}
	if input.Longitude != nil {
		location.Longitude = *input.Longitude
	}
	return location
}
