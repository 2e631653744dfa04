package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/medhealth/fieldforce-backend/internal/access"
	"github.com/medhealth/fieldforce-backend/internal/testdb"
	"github.com/medhealth/fieldforce-backend/pkg/config"
	"github.com/medhealth/fieldforce-backend/pkg/db/models"
	"github.com/medhealth/fieldforce-backend/pkg/enums"
	pkgerrors "github.com/medhealth/fieldforce-backend/pkg/errors"
	"github.com/medhealth/fieldforce-backend/pkg/types"
)

const testPassword = "Secret1!"

type fixture struct {
	svc  Service
	repo Repository
	conn *gorm.DB
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client, conn := testdb.Client(t)
	repo := NewRepository(conn)
	svc, err := NewService(ServiceParams{Repo: repo, Tx: client, PasswordConfig: config.PasswordConfig{}})
	require.NoError(t, err)
	return fixture{svc: svc, repo: repo, conn: conn}
}

func (f fixture) create(t *testing.T, name string, role enums.UserRole, mutate func(*CreateUserInput)) *UserDTO {
	t.Helper()
	input := CreateUserInput{
		Name:     name,
		Email:    name + "@example.com",
		Password: testPassword,
		Role:     role,
	}
	if mutate != nil {
		mutate(&input)
	}
	user, err := f.svc.Create(context.Background(), input)
	require.NoError(t, err)
	return user
}

func TestCreateAppliesDefaults(t *testing.T) {
	f := newFixture(t)
	user, err := f.svc.Create(context.Background(), CreateUserInput{
		Name:     "  Rana  ",
		Email:    " Rana@Example.COM ",
		Password: testPassword,
	})
	require.NoError(t, err)

	assert.Equal(t, "Rana", user.Name)
	assert.Equal(t, "rana@example.com", user.Email)
	assert.Equal(t, enums.UserRoleRepresentative, user.Role)
	assert.True(t, user.IsActive)
	assert.Equal(t, 100, user.KPI)
	assert.Equal(t, types.DefaultPreferences(), user.Preferences)

	stored, err := f.repo.FindByEmail(context.Background(), "rana@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, testPassword, stored.PasswordHash)
}

func TestCreateRejectsDuplicateEmailAndWeakPassword(t *testing.T) {
	f := newFixture(t)
	f.create(t, "dup", enums.UserRoleRepresentative, nil)

	_, err := f.svc.Create(context.Background(), CreateUserInput{Name: "dup2", Email: "DUP@example.com", Password: testPassword})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))

	_, err = f.svc.Create(context.Background(), CreateUserInput{Name: "weak", Email: "weak@example.com", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestCreateChecksManagerRoles(t *testing.T) {
	f := newFixture(t)
	dm := f.create(t, "dm", enums.UserRoleDistrictManager, nil)
	lm := f.create(t, "lm", enums.UserRoleLineManager, nil)

	_, err := f.svc.Create(context.Background(), CreateUserInput{
		Name: "rep", Email: "rep@example.com", Password: testPassword,
		LineManagerID: &dm.ID,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	missing := uuid.New()
	_, err = f.svc.Create(context.Background(), CreateUserInput{
		Name: "rep", Email: "rep@example.com", Password: testPassword,
		AreaManagerID: &missing,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	rep, err := f.svc.Create(context.Background(), CreateUserInput{
		Name: "rep", Email: "rep@example.com", Password: testPassword,
		LineManagerID: &lm.ID, DistrictManagerID: &dm.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, lm.ID, *rep.LineManagerID)
}

func TestUpdateRejectsSelfReferenceAndCycles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dm := f.create(t, "dm", enums.UserRoleDistrictManager, nil)
	lm := f.create(t, "lm", enums.UserRoleLineManager, func(in *CreateUserInput) { in.DistrictManagerID = &dm.ID })

	_, err := f.svc.Update(ctx, lm.ID, UpdateUserInput{LineManagerID: types.NullableUUID{Valid: true, Value: &lm.ID}})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = f.svc.Update(ctx, dm.ID, UpdateUserInput{LineManagerID: types.NullableUUID{Valid: true, Value: &lm.ID}})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	assert.Contains(t, pkgerrors.As(err).Message(), "cycle")

	cleared, err := f.svc.Update(ctx, lm.ID, UpdateUserInput{DistrictManagerID: types.NullableUUID{Valid: true}})
	require.NoError(t, err)
	assert.Nil(t, cleared.DistrictManagerID)

	updated, err := f.svc.Update(ctx, dm.ID, UpdateUserInput{LineManagerID: types.NullableUUID{Valid: true, Value: &lm.ID}})
	require.NoError(t, err)
	assert.Equal(t, lm.ID, *updated.LineManagerID)
}

func TestUpdateFieldsAndRoleChangeGuard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lm := f.create(t, "lm", enums.UserRoleLineManager, nil)
	rep := f.create(t, "rep", enums.UserRoleRepresentative, func(in *CreateUserInput) { in.LineManagerID = &lm.ID })

	role := enums.UserRoleRepresentative
	_, err := f.svc.Update(ctx, lm.ID, UpdateUserInput{Role: &role})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))

	name := "Renamed"
	kpi := 85
	active := false
	updated, err := f.svc.Update(ctx, rep.ID, UpdateUserInput{Name: &name, KPI: &kpi, IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, 85, updated.KPI)
	assert.False(t, updated.IsActive)
	assert.Equal(t, lm.ID, *updated.LineManagerID)

	_, err = f.svc.Update(ctx, uuid.New(), UpdateUserInput{Name: &name})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestDeleteRefusesManagersAndPlanOwners(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lm := f.create(t, "lm", enums.UserRoleLineManager, nil)
	f.create(t, "rep", enums.UserRoleRepresentative, func(in *CreateUserInput) { in.LineManagerID = &lm.ID })
	owner := f.create(t, "owner", enums.UserRoleRepresentative, nil)
	plain := f.create(t, "plain", enums.UserRoleRepresentative, nil)

	require.NoError(t, f.conn.Create(&models.VisitPlan{
		ID: uuid.New(), UserID: owner.ID, Type: enums.PlanTypeDaily, Region: "north", VisitDate: time.Now().UTC(),
	}).Error)

	err := f.svc.Delete(ctx, lm.ID)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
	err = f.svc.Delete(ctx, owner.ID)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))

	require.NoError(t, f.svc.Delete(ctx, plain.ID))
	err = f.svc.Delete(ctx, plain.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestListingsAndDeactivate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t, "admin", enums.UserRoleAdmin, nil)
	f.create(t, "hr", enums.UserRoleHR, nil)
	rep := f.create(t, "rep", enums.UserRoleRepresentative, nil)
	f.create(t, "lm", enums.UserRoleLineManager, nil)

	all, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	employees, err := f.svc.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, employees, 2)

	hrs, err := f.svc.ListByRole(ctx, "HR")
	require.NoError(t, err)
	require.Len(t, hrs, 1)
	assert.Equal(t, "hr", hrs[0].Name)

	_, err = f.svc.ListByRole(ctx, "boss")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	deactivated, err := f.svc.Deactivate(ctx, rep.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)
}

func TestGetPermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rep := f.create(t, "rep", enums.UserRoleRepresentative, nil)
	other := f.create(t, "other", enums.UserRoleRepresentative, nil)

	_, err := f.svc.Get(ctx, access.Actor{ID: rep.ID, Role: enums.UserRoleRepresentative}, rep.ID)
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, access.Actor{ID: rep.ID, Role: enums.UserRoleRepresentative}, other.ID)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
	_, err = f.svc.Get(ctx, access.Actor{ID: uuid.New(), Role: enums.UserRoleAreaManager}, other.ID)
	require.NoError(t, err)
}

func TestProfileResolvesManagers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dm := f.create(t, "dm", enums.UserRoleDistrictManager, nil)
	lm := f.create(t, "lm", enums.UserRoleLineManager, nil)
	rep := f.create(t, "rep", enums.UserRoleRepresentative, func(in *CreateUserInput) {
		in.LineManagerID = &lm.ID
		in.DistrictManagerID = &dm.ID
	})

	profile, err := f.svc.Profile(ctx, rep.ID)
	require.NoError(t, err)
	require.NotNil(t, profile.LineManager)
	require.NotNil(t, profile.DistrictManager)
	assert.Equal(t, "lm@example.com", profile.LineManager.Email)
	assert.Equal(t, "dm", profile.DistrictManager.Name)

	phone := " 0100 "
	updated, err := f.svc.UpdateProfile(ctx, rep.ID, UpdateProfileInput{Phone: &phone})
	require.NoError(t, err)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, "0100", *updated.Phone)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rep := f.create(t, "rep", enums.UserRoleRepresentative, nil)

	err := f.svc.ChangePassword(ctx, rep.ID, ChangePasswordInput{CurrentPassword: "Wrong1!x", NewPassword: "Another2@"})
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.CodeOf(err))

	err = f.svc.ChangePassword(ctx, rep.ID, ChangePasswordInput{CurrentPassword: testPassword, NewPassword: testPassword})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	err = f.svc.ChangePassword(ctx, rep.ID, ChangePasswordInput{CurrentPassword: testPassword, NewPassword: "weakpass"})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	require.NoError(t, f.svc.ChangePassword(ctx, rep.ID, ChangePasswordInput{CurrentPassword: testPassword, NewPassword: "Another2@"}))
	err = f.svc.ChangePassword(ctx, rep.ID, ChangePasswordInput{CurrentPassword: testPassword, NewPassword: "Third3$x"})
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.CodeOf(err))
}

func TestUpdatePreferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rep := f.create(t, "rep", enums.UserRoleRepresentative, nil)

	dark := "dark"
	off := false
	prefs, err := f.svc.UpdatePreferences(ctx, rep.ID, types.PreferencesPatch{Theme: &dark, NotificationsEnabled: &off})
	require.NoError(t, err)
	assert.Equal(t, "dark", prefs.Theme)
	assert.False(t, prefs.NotificationsEnabled)
	assert.Equal(t, "ar", prefs.Language)

	stored, err := f.repo.FindByID(ctx, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, prefs, stored.Preferences)

	neon := "neon"
	_, err = f.svc.UpdatePreferences(ctx, rep.ID, types.PreferencesPatch{Theme: &neon})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestCanSupervise(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	area := f.create(t, "area", enums.UserRoleAreaManager, nil)
	lm := f.create(t, "lm", enums.UserRoleLineManager, func(in *CreateUserInput) { in.AreaManagerID = &area.ID })
	rep := f.create(t, "rep", enums.UserRoleRepresentative, func(in *CreateUserInput) { in.LineManagerID = &lm.ID })
	otherLM := f.create(t, "lm2", enums.UserRoleLineManager, nil)

	cases := []struct {
		actor access.Actor
		want  bool
	}{
		{access.Actor{ID: rep.ID, Role: enums.UserRoleRepresentative}, true},
		{access.Actor{ID: area.ID, Role: enums.UserRoleAreaManager}, true},
		{access.Actor{ID: lm.ID, Role: enums.UserRoleLineManager}, true},
		{access.Actor{ID: otherLM.ID, Role: enums.UserRoleLineManager}, false},
		{access.Actor{ID: uuid.New(), Role: enums.UserRoleHR}, true},
		{access.Actor{ID: uuid.New(), Role: enums.UserRoleRepresentative}, false},
	}
	for _, tc := range cases {
		got, err := f.svc.CanSupervise(ctx, tc.actor, rep.ID)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "actor %s", tc.actor.Role)
	}

	subs, err := f.svc.Subordinates(ctx, area.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{lm.ID, rep.ID}, subs)
}
