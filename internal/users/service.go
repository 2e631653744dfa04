package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medhealth/fieldforce-backend/internal/access"
	"github.com/medhealth/fieldforce-backend/pkg/config"
	"github.com/medhealth/fieldforce-backend/pkg/db"
	"github.com/medhealth/fieldforce-backend/pkg/db/models"
	"github.com/medhealth/fieldforce-backend/pkg/enums"
	pkgerrors "github.com/medhealth/fieldforce-backend/pkg/errors"
	"github.com/medhealth/fieldforce-backend/pkg/security"
	"github.com/medhealth/fieldforce-backend/pkg/types"
)

const defaultKPI = 100

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service implements the identity store.
type Service interface {
	Create(ctx context.Context, input CreateUserInput) (*UserDTO, error)
	Get(ctx context.Context, actor access.Actor, id uuid.UUID) (*UserDTO, error)
	List(ctx context.Context) ([]UserDTO, error)
	ListByRole(ctx context.Context, role string) ([]UserDTO, error)
	ListEmployees(ctx context.Context) ([]UserDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*UserDTO, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error

	Profile(ctx context.Context, id uuid.UUID) (*ProfileDTO, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateProfileInput) (*UserDTO, error)
	ChangePassword(ctx context.Context, id uuid.UUID, input ChangePasswordInput) error
	UpdatePreferences(ctx context.Context, id uuid.UUID, patch types.PreferencesPatch) (types.Preferences, error)

	Hierarchy(ctx context.Context) (*Hierarchy, error)
	Subordinates(ctx context.Context, managerID uuid.UUID) ([]uuid.UUID, error)
	CanSupervise(ctx context.Context, actor access.Actor, userID uuid.UUID) (bool, error)
}

// ServiceParams groups the dependencies of the users service.
type ServiceParams struct {
	Repo           Repository
	Tx             txRunner
	PasswordConfig config.PasswordConfig
}

type service struct {
	repo     Repository
	tx       txRunner
	password config.PasswordConfig
}

// NewService builds the users service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		password: params.PasswordConfig,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateUserInput) (*UserDTO, error) {
	email := NormalizeEmail(input.Email)
	name := strings.TrimSpace(input.Name)
	if name == "" || email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and email are required")
	}
	if !security.IsStrongPassword(input.Password) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password does not meet strength requirements")
	}
	role := input.Role
	if role == "" {
		role = enums.UserRoleRepresentative
	}
	if !role.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid role %q", role)
	}

	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		ID:                uuid.New(),
		Name:              name,
		Email:             email,
		PasswordHash:      hash,
		Role:              role,
		LineManagerID:     input.LineManagerID,
		DistrictManagerID: input.DistrictManagerID,
		AreaManagerID:     input.AreaManagerID,
		Governorate:       trimmed(input.Governorate),
		Phone:             trimmed(input.Phone),
		Address:           trimmed(input.Address),
		IsActive:          true,
		KPI:               defaultKPI,
		Preferences:       types.DefaultPreferences(),
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := s.validateReportingLines(ctx, repo, user, false); err != nil {
			return err
		}
		if err := repo.Create(ctx, user); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) Get(ctx context.Context, actor access.Actor, id uuid.UUID) (*UserDTO, error) {
	if !actor.Is(id) && !actor.HasRole(access.Supervisors...) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to view this user")
	}
	user, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) List(ctx context.Context) ([]UserDTO, error) {
	return s.list(ctx, ListFilter{})
}

func (s *service) ListByRole(ctx context.Context, role string) ([]UserDTO, error) {
	parsed, err := enums.ParseUserRole(strings.TrimSpace(role))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role")
	}
	return s.list(ctx, ListFilter{Role: parsed})
}

func (s *service) ListEmployees(ctx context.Context) ([]UserDTO, error) {
	return s.list(ctx, ListFilter{ExcludeRoles: []enums.UserRole{
		enums.UserRoleAdmin,
		enums.UserRoleGeneralManager,
		enums.UserRoleHR,
	}})
}

func (s *service) list(ctx context.Context, filter ListFilter) ([]UserDTO, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	return fromModels(rows), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*UserDTO, error) {
	var out *models.User
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		user, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}

		updates := map[string]any{}
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
			}
			updates["name"] = name
			user.Name = name
		}
		if input.Email != nil {
			email := NormalizeEmail(*input.Email)
			if email == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "email cannot be empty")
			}
			updates["email"] = email
			user.Email = email
		}
		if input.Role != nil && *input.Role != user.Role {
			if !input.Role.IsValid() {
				return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid role %q", *input.Role)
			}
			reports, err := repo.CountReports(ctx, id)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count user reports")
			}
			if reports > 0 {
				return pkgerrors.New(pkgerrors.CodeConflict, "reassign the user's reports before changing their role").
					WithDetails(map[string]any{"reports": reports})
			}
			updates["role"] = *input.Role
			user.Role = *input.Role
		}
		linesChanged := false
		for _, line := range []struct {
			patch  types.NullableUUID
			column string
			field  **uuid.UUID
		}{
			{input.LineManagerID, "lm_id", &user.LineManagerID},
			{input.DistrictManagerID, "dm_id", &user.DistrictManagerID},
			{input.AreaManagerID, "area_id", &user.AreaManagerID},
		} {
			if !line.patch.Valid {
				continue
			}
			*line.field = line.patch.Apply(*line.field)
			updates[line.column] = *line.field
			linesChanged = true
		}
		if input.Governorate != nil {
			updates["governorate"] = trimmed(input.Governorate)
			user.Governorate = trimmed(input.Governorate)
		}
		if input.Phone != nil {
			updates["phone"] = trimmed(input.Phone)
			user.Phone = trimmed(input.Phone)
		}
		if input.IsActive != nil {
			updates["is_active"] = *input.IsActive
			user.IsActive = *input.IsActive
		}
		if input.KPI != nil {
			if *input.KPI < 0 || *input.KPI > 100 {
				return pkgerrors.New(pkgerrors.CodeValidation, "kpi must be between 0 and 100")
			}
			updates["kpi"] = *input.KPI
			user.KPI = *input.KPI
		}
		if len(updates) == 0 {
			out = user
			return nil
		}

		if linesChanged {
			if err := s.validateReportingLines(ctx, repo, user, true); err != nil {
				return err
			}
		}
		if err := repo.Update(ctx, id, updates); err != nil {
			return s.mapWriteError(err, "update user")
		}
		reloaded, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		out = reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(out), nil
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	var out *models.User
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(ctx, id, map[string]any{"is_active": false}); err != nil {
			return s.mapWriteError(err, "deactivate user")
		}
		user, err := s.load(ctx, repo, id)
		out = user
		return err
	})
	if err != nil {
		return nil, err
	}
	return FromModel(out), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.load(ctx, repo, id); err != nil {
			return err
		}
		plans, err := repo.CountPlans(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count user plans")
		}
		if plans > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "user owns visit plans").
				WithDetails(map[string]any{"plans": plans})
		}
		reports, err := repo.CountReports(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count user reports")
		}
		if reports > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "user is a manager of other users").
				WithDetails(map[string]any{"reports": reports})
		}
		if err := repo.Delete(ctx, id); err != nil {
			return s.mapWriteError(err, "delete user")
		}
		return nil
	})
}

func (s *service) Profile(ctx context.Context, id uuid.UUID) (*ProfileDTO, error) {
	user, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	profile := &ProfileDTO{UserDTO: *FromModel(user)}
	if user.LineManagerID != nil {
		manager, err := s.optional(ctx, *user.LineManagerID)
		if err != nil {
			return nil, err
		}
		profile.LineManager = SummaryOf(manager)
	}
	if user.DistrictManagerID != nil {
		manager, err := s.optional(ctx, *user.DistrictManagerID)
		if err != nil {
			return nil, err
		}
		profile.DistrictManager = SummaryOf(manager)
	}
	return profile, nil
}

func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateProfileInput) (*UserDTO, error) {
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Email != nil {
		email := NormalizeEmail(*input.Email)
		if email == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "email cannot be empty")
		}
		updates["email"] = email
	}
	if input.Phone != nil {
		updates["phone"] = trimmed(input.Phone)
	}
	if input.Address != nil {
		updates["address"] = trimmed(input.Address)
	}
	if input.Avatar != nil {
		updates["avatar"] = trimmed(input.Avatar)
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, s.mapWriteError(err, "update profile")
		}
	}
	user, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) ChangePassword(ctx context.Context, id uuid.UUID, input ChangePasswordInput) error {
	if input.CurrentPassword == input.NewPassword {
		return pkgerrors.New(pkgerrors.CodeValidation, "new password must differ from the current password")
	}
	if !security.IsStrongPassword(input.NewPassword) {
		return pkgerrors.New(pkgerrors.CodeValidation, "password does not meet strength requirements")
	}
	user, err := s.load(ctx, s.repo, id)
	if err != nil {
		return err
	}
	ok, err := security.VerifyPassword(input.CurrentPassword, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "current password is incorrect")
	}
	hash, err := security.HashPassword(input.NewPassword, s.password)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.repo.Update(ctx, id, map[string]any{"password_hash": hash}); err != nil {
		return s.mapWriteError(err, "change password")
	}
	return nil
}

func (s *service) UpdatePreferences(ctx context.Context, id uuid.UUID, patch types.PreferencesPatch) (types.Preferences, error) {
	if patch.Theme != nil && *patch.Theme != types.ThemeLight && *patch.Theme != types.ThemeDark {
		return types.Preferences{}, pkgerrors.New(pkgerrors.CodeValidation, "theme must be light or dark")
	}
	var out types.Preferences
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		user, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		out = patch.Apply(user.Preferences)
		if err := repo.Update(ctx, id, map[string]any{"preferences": out}); err != nil {
			return s.mapWriteError(err, "update preferences")
		}
		return nil
	})
	if err != nil {
		return types.Preferences{}, err
	}
	return out, nil
}

func (s *service) Hierarchy(ctx context.Context) (*Hierarchy, error) {
	rows, err := s.repo.List(ctx, ListFilter{})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reporting lines")
	}
	return NewHierarchy(rows), nil
}

func (s *service) Subordinates(ctx context.Context, managerID uuid.UUID) ([]uuid.UUID, error) {
	h, err := s.Hierarchy(ctx)
	if err != nil {
		return nil, err
	}
	return h.Subordinates(managerID), nil
}

// CanSupervise reports whether actor may read records owned by userID:
// the owner, back office, or a manager above the owner.
func (s *service) CanSupervise(ctx context.Context, actor access.Actor, userID uuid.UUID) (bool, error) {
	if actor.Is(userID) || actor.HasRole(access.BackOffice...) {
		return true, nil
	}
	if !actor.Role.IsManager() {
		return false, nil
	}
	h, err := s.Hierarchy(ctx)
	if err != nil {
		return false, err
	}
	return h.IsAbove(actor.ID, userID), nil
}

// validateReportingLines checks the role and existence of every referenced
// manager. When checkCycles is set the proposed edges are also checked
// against the full hierarchy.
func (s *service) validateReportingLines(ctx context.Context, repo Repository, user *models.User, checkCycles bool) error {
	refs := []struct {
		id    *uuid.UUID
		role  enums.UserRole
		field string
	}{
		{user.LineManagerID, enums.UserRoleLineManager, "lmId"},
		{user.DistrictManagerID, enums.UserRoleDistrictManager, "dmId"},
		{user.AreaManagerID, enums.UserRoleAreaManager, "areaId"},
	}
	for _, ref := range refs {
		if ref.id == nil {
			continue
		}
		if *ref.id == user.ID {
			return pkgerrors.New(pkgerrors.CodeValidation, "user cannot report to themself").
				WithDetails(map[string]string{"field": ref.field})
		}
		manager, err := repo.FindByID(ctx, *ref.id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "referenced manager does not exist").
					WithDetails(map[string]string{"field": ref.field})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load manager")
		}
		if manager.Role != ref.role {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "%s must reference a user with role %s", ref.field, ref.role).
				WithDetails(map[string]string{"field": ref.field})
		}
	}

	if !checkCycles {
		return nil
	}
	rows, err := repo.List(ctx, ListFilter{})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reporting lines")
	}
	h := NewHierarchy(rows).WithManagers(user.ID, user.ManagerIDs())
	for _, managerID := range user.ManagerIDs() {
		if h.Reaches(managerID, user.ID) {
			return pkgerrors.New(pkgerrors.CodeValidation, "reporting line would create a cycle")
		}
	}
	return nil
}

func (s *service) load(ctx context.Context, repo Repository, id uuid.UUID) (*models.User, error) {
	user, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) optional(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load manager")
	}
	return user, nil
}

func (s *service) mapWriteError(err error, op string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	case db.IsUniqueViolation(err, ""):
		return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
	}
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
