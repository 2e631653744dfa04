package kpi

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/medhealth/fieldforce-backend/internal/access"
	"github.com/medhealth/fieldforce-backend/internal/testdb"
	"github.com/medhealth/fieldforce-backend/internal/users"
	"github.com/medhealth/fieldforce-backend/pkg/db/models"
	"github.com/medhealth/fieldforce-backend/pkg/enums"
	pkgerrors "github.com/medhealth/fieldforce-backend/pkg/errors"
	"github.com/medhealth/fieldforce-backend/pkg/metrics"
	"github.com/medhealth/fieldforce-backend/pkg/types"
)

var fixedNow = time.Date(2026, 3, 18, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc  Service
	conn *gorm.DB
	reg  *prometheus.Registry
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client, conn := testdb.Client(t)
	reg := prometheus.NewRegistry()
	svc, err := NewService(ServiceParams{
		Repo:    NewRepository(conn),
		Users:   users.NewRepository(conn),
		Tx:      client,
		Policy:  defaultPolicy(),
		Metrics: metrics.NewWorkflow(reg),
	})
	require.NoError(t, err)
	svc.(*service).now = func() time.Time { return fixedNow }
	return fixture{svc: svc, conn: conn, reg: reg}
}

func (f fixture) user(t *testing.T, name string, role enums.UserRole) access.Actor {
	t.Helper()
	u := models.User{
		ID: uuid.New(), Name: name, Email: name + "@example.com", PasswordHash: "x",
		Role: role, IsActive: true, KPI: 100, Preferences: types.DefaultPreferences(),
	}
	require.NoError(t, f.conn.Create(&u).Error)
	return access.Actor{ID: u.ID, Role: role}
}

// plan seeds a plan with the given number of stops, the first done of them completed.
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

func TestForUserIsPureRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rep := f.user(t, "rep", enums.UserRoleRepresentative)
	other := f.user(t, "other", enums.UserRoleRepresentative)
	lm := f.user(t, "lm", enums.UserRoleLineManager)

	f.plan(t, rep.ID, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), 4, 3)
	f.plan(t, rep.ID, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), 2, 1)
	f.plan(t, rep.ID, time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC), 5, 5)
	f.plan(t, rep.ID, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), 5, 5)

	res, err := f.svc.ForUser(ctx, rep, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, res.TotalVisits)
	assert.Equal(t, 4, res.CompletedVisits)
	assert.Equal(t, 312, res.RequiredVisits)
	assert.Equal(t, 1, res.CompletionPercentage)
	assert.Equal(t, 85, res.KPI)
	assert.Equal(t, 100, res.StoredKPI)
	assert.Equal(t, 3, res.Period.Month)

	var stored models.User
	require.NoError(t, f.conn.First(&stored, "id = ?", rep.ID).Error)
	assert.Equal(t, 100, stored.KPI)

	_, err = f.svc.ForUser(ctx, other, rep.ID)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
	_, err = f.svc.ForUser(ctx, lm, rep.ID)
	require.NoError(t, err)
	_, err = f.svc.ForUser(ctx, lm, uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestForUserTwelveStopsElevenCompleted(t *testing.T) {
	f := newFixture(t)
	rep := f.user(t, "rep", enums.UserRoleRepresentative)
	f.plan(t, rep.ID, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), 12, 11)

	res, err := f.svc.ForUser(context.Background(), rep, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, res.TotalVisits)
	assert.Equal(t, 11, res.CompletedVisits)
	assert.Equal(t, 4, res.CompletionPercentage)
	assert.Equal(t, 85, res.KPI)
}

func TestRecomputeStoresAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rep := f.user(t, "rep", enums.UserRoleRepresentative)
	busy := f.user(t, "busy", enums.UserRoleRepresentative)
	f.plan(t, rep.ID, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), 2, 1)
	for d := 1; d <= 24; d++ {
		f.plan(t, busy.ID, time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC), 12, 12)
	}

	first, err := f.svc.Recompute(ctx, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, 85, first.KPI)
	assert.Equal(t, 85, first.StoredKPI)
	second, err := f.svc.Recompute(ctx, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Score, second.Score)

	all, err := f.svc.RecomputeAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	byID := map[uuid.UUID]Result{}
	for _, r := range all {
		byID[r.UserID] = r
	}
	assert.Equal(t, 288, byID[busy.ID].CompletedVisits)
	assert.Equal(t, 92, byID[busy.ID].CompletionPercentage)
	assert.Equal(t, 100, byID[busy.ID].KPI)

	var stored models.User
	require.NoError(t, f.conn.First(&stored, "id = ?", rep.ID).Error)
	assert.Equal(t, 85, stored.KPI)

	reads, err := f.svc.ForAll(ctx)
	require.NoError(t, err)
	assert.Len(t, reads, 2)

	assert.Equal(t, float64(2), counterValue(t, f.reg, "user"))
	assert.Equal(t, float64(2), counterValue(t, f.reg, "all"))

	_, err = f.svc.Recompute(ctx, uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestTrendAndCompletedVisits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rep := f.user(t, "rep", enums.UserRoleRepresentative)
	f.plan(t, rep.ID, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), 3, 2)
	f.plan(t, rep.ID, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), 3, 1)

	trend, err := f.svc.Trend(ctx, rep, rep.ID)
	require.NoError(t, err)
	require.Len(t, trend, 3)
	assert.Equal(t, 1, trend[0].Month)
	assert.Equal(t, 1, trend[0].CompletionPercentage)
	assert.Equal(t, 0, trend[1].CompletionPercentage)
	assert.Equal(t, 85, trend[2].Target)

	visits, err := f.svc.CompletedVisits(ctx, rep, 1, 2026)
	require.NoError(t, err)
	assert.Equal(t, 2, visits.Count)
	assert.Equal(t, "L", visits.Visits[0].LocationName)

	current, err := f.svc.CompletedVisits(ctx, rep, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, current.Count)

	_, err = f.svc.CompletedVisits(ctx, rep, 13, 2026)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func counterValue(t *testing.T, reg *prometheus.Registry, scope string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != "kpi_recomputes_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "scope" && l.GetValue() == scope {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	t.Fatalf("counter for scope %s not found", scope)
	return 0
}
