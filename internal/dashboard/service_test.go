package dashboard

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/medhealth/fieldforce-backend/internal/access"
	"github.com/medhealth/fieldforce-backend/internal/activity"
	"github.com/medhealth/fieldforce-backend/internal/kpi"
	"github.com/medhealth/fieldforce-backend/internal/testdb"
	"github.com/medhealth/fieldforce-backend/pkg/config"
	"github.com/medhealth/fieldforce-backend/pkg/db/models"
	"github.com/medhealth/fieldforce-backend/pkg/enums"
	pkgerrors "github.com/medhealth/fieldforce-backend/pkg/errors"
	"github.com/medhealth/fieldforce-backend/pkg/types"
)

var fixedNow = time.Date(2026, 3, 18, 10, 0, 0, 0, time.UTC)

type stubPreferences struct {
	calls []uuid.UUID
}

func (s *stubPreferences) UpdatePreferences(_ context.Context, id uuid.UUID, patch types.PreferencesPatch) (types.Preferences, error) {
	s.calls = append(s.calls, id)
	return patch.Apply(types.DefaultPreferences()), nil
}

type fixture struct {
	svc   Service
	conn  *gorm.DB
	prefs *stubPreferences
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client, conn := testdb.Client(t)
	feed, err := activity.NewService(activity.NewRepository(conn), client, 20)
	require.NoError(t, err)
	prefs := &stubPreferences{}
	svc, err := NewService(ServiceParams{
		Loader:      NewLoader(conn, kpi.NewRepository(conn)),
		Activity:    feed,
		Preferences: prefs,
		Policy: kpi.NewPolicy(config.KPIConfig{
			WorkingDays: 26, VisitsPerDay: 12, FullScoreThreshold: 90, PenaltyPercent: 15, TrendTarget: 85,
		}),
		Holidays: config.HolidayConfig{YearlyCap: 27},
		Config:   config.DashboardConfig{RecentActivities: 5, LeaderboardSize: 5},
	})
	require.NoError(t, err)
	svc.(*service).now = func() time.Time { return fixedNow }
	return fixture{svc: svc, conn: conn, prefs: prefs}
}

func (f fixture) user(t *testing.T, name string, role enums.UserRole, manager *uuid.UUID) access.Actor {
	t.Helper()
	u := models.User{
		ID: uuid.New(), Name: name, Email: name + "@example.com", PasswordHash: "x",
		Role: role, IsActive: true, KPI: 100, LineManagerID: manager, Preferences: types.DefaultPreferences(),
	}
	require.NoError(t, f.conn.Create(&u).Error)
	return access.Actor{ID: u.ID, Role: role}
}

func (f fixture) plan(t *testing.T, owner uuid.UUID, visit time.Time, stops, done int) {
	t.Helper()
	plan := models.VisitPlan{ID: uuid.New(), UserID: owner, Type: enums.PlanTypeDaily, Region: "r", VisitDate: visit}
	require.NoError(t, f.conn.Create(&plan).Error)
	for i := 0; i < stops; i++ {
		loc := models.Location{ID: uuid.New(), UserID: owner, Name: "L", Address: "a", State: "s", City: "c"}
		require.NoError(t, f.conn.Create(&loc).Error)
		entry := models.PlanLocation{ID: uuid.New(), PlanID: plan.ID, LocationID: loc.ID, Position: i, Status: enums.VisitStatusIncomplete}
		if i < done {
			at := visit.Add(time.Hour)
			entry.Status = enums.VisitStatusCompleted
			entry.CompletedAt = &at
		}
		require.NoError(t, f.conn.Omit("Location").Create(&entry).Error)
	}
}

func (f fixture) notify(t *testing.T, recipient uuid.UUID, status enums.NotificationStatus) {
	t.Helper()
	row := models.Notification{
		ID: uuid.New(), RecipientID: recipient, Type: enums.NotificationTypeMessage,
		Title: "t", Message: "m", Priority: enums.NotificationPriorityMedium, Status: status,
	}
	require.NoError(t, f.conn.Create(&row).Error)
}

func TestGetAssemblesFromStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gm := f.user(t, "gm", enums.UserRoleGeneralManager, nil)
	lm := f.user(t, "lm", enums.UserRoleLineManager, nil)
	rep := f.user(t, "rep", enums.UserRoleRepresentative, &lm.ID)

	f.plan(t, rep.ID, time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC), 3, 1)
	f.plan(t, rep.ID, time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC), 2, 2)
	f.plan(t, lm.ID, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), 2, 1)
	f.plan(t, lm.ID, time.Date(2025, 12, 3, 0, 0, 0, 0, time.UTC), 4, 4)
	f.notify(t, gm.ID, enums.NotificationStatusUnread)
	f.notify(t, gm.ID, enums.NotificationStatusRead)
	f.notify(t, rep.ID, enums.NotificationStatusArchived)

	for i := 0; i < 7; i++ {
		_, err := f.svc.RecordActivity(ctx, gm, ActivityInput{Type: "login", Description: "Signed in"})
		require.NoError(t, err)
	}

	d, err := f.svc.Get(ctx, gm)
	require.NoError(t, err)
	require.NotNil(t, d.User)
	assert.Equal(t, gm.ID, d.User.ID)
	assert.Len(t, d.RecentActivities, 5)
	assert.Equal(t, NotificationStats{Total: 2, Unread: 1}, d.Notifications)
	assert.Equal(t, NotificationStats{Total: 3, Unread: 1}, d.SystemStats.Notifications)

	require.Len(t, d.Users, 3)
	sum := 0
	for _, row := range d.Users {
		sum += row.KPIData.TotalVisits
	}
	assert.Equal(t, 5, d.SystemStats.Plans.TotalVisits)
	assert.Equal(t, sum, d.SystemStats.Plans.TotalVisits)
	assert.Equal(t, 2, d.SystemStats.Plans.CompletedVisits)
	assert.Equal(t, 11, d.SystemStats.Locations.Total)
	require.NotNil(t, d.GMStats)
	assert.Nil(t, d.HRStats)

	scoped, err := f.svc.Get(ctx, lm)
	require.NoError(t, err)
	assert.Len(t, scoped.Users, 2)
	assert.Empty(t, scoped.RecentActivities)
}

func TestGetUsesStoredRole(t *testing.T) {
	f := newFixture(t)
	hr := f.user(t, "hr", enums.UserRoleHR, nil)

	d, err := f.svc.Get(context.Background(), access.Actor{ID: hr.ID, Role: enums.UserRoleRepresentative})
	require.NoError(t, err)
	assert.NotNil(t, d.HRStats)

	_, err = f.svc.Get(context.Background(), access.Actor{ID: uuid.New(), Role: enums.UserRoleAdmin})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestRecordActivityValidatesType(t *testing.T) {
	f := newFixture(t)
	rep := f.user(t, "rep", enums.UserRoleRepresentative, nil)

	_, err := f.svc.RecordActivity(context.Background(), rep, ActivityInput{Type: "dance", Description: "x"})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	row, err := f.svc.RecordActivity(context.Background(), rep, ActivityInput{Type: "patient_added", Description: "Added Dr. Salem"})
	require.NoError(t, err)
	assert.Equal(t, enums.ActivityTypePatientAdded, row.Type)
	assert.Equal(t, rep.ID, row.UserID)
}

func TestUpdatePreferencesTargetsCaller(t *testing.T) {
	f := newFixture(t)
	rep := f.user(t, "rep", enums.UserRoleRepresentative, nil)
	dark := types.ThemeDark

	prefs, err := f.svc.UpdatePreferences(context.Background(), rep, types.PreferencesPatch{Theme: &dark})
	require.NoError(t, err)
	assert.Equal(t, types.ThemeDark, prefs.Theme)
	assert.Equal(t, []uuid.UUID{rep.ID}, f.prefs.calls)
}

func TestKPIReportWorkbook(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "admin", enums.UserRoleAdmin, nil)
	rep := f.user(t, "rep", enums.UserRoleRepresentative, nil)
	f.plan(t, rep.ID, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), 4, 3)

	var buf bytes.Buffer
	require.NoError(t, f.svc.KPIReport(ctx, admin, &buf))

	book, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = book.Close() }()
	assert.Equal(t, []string{usersSheet, trendSheet}, book.GetSheetList())

	rows, err := book.GetRows(usersSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Name", rows[0][0])
	assert.Equal(t, "Remaining", rows[0][8])
	assert.Equal(t, []string{"rep", "rep@example.com", "R", "4", "3", "1", "85", "0", "27"}, rows[2])

	trend, err := book.GetRows(trendSheet)
	require.NoError(t, err)
	assert.Len(t, trend, 4)

	err = f.svc.KPIReport(ctx, rep, &bytes.Buffer{})
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
}
