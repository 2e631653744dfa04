package plans

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/medhealth/fieldforce-backend/internal/access"
	"github.com/medhealth/fieldforce-backend/internal/activity"
	"github.com/medhealth/fieldforce-backend/internal/locations"
	"github.com/medhealth/fieldforce-backend/internal/notifications"
	"github.com/medhealth/fieldforce-backend/internal/testdb"
	"github.com/medhealth/fieldforce-backend/internal/users"
	"github.com/medhealth/fieldforce-backend/pkg/config"
	"github.com/medhealth/fieldforce-backend/pkg/db/models"
	"github.com/medhealth/fieldforce-backend/pkg/enums"
	pkgerrors "github.com/medhealth/fieldforce-backend/pkg/errors"
	"github.com/medhealth/fieldforce-backend/pkg/types"
)

type fixture struct {
	svc  Service
	conn *gorm.DB
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client, conn := testdb.Client(t)
	userRepo := users.NewRepository(conn)
	userSvc, err := users.NewService(users.ServiceParams{Repo: userRepo, Tx: client, PasswordConfig: config.PasswordConfig{}})
	require.NoError(t, err)
	activitySvc, err := activity.NewService(activity.NewRepository(conn), client, 20)
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Repo:          NewRepository(conn),
		Tx:            client,
		Locations:     locations.NewRepository(conn),
		Users:         userRepo,
		Supervisor:    userSvc,
		Notifications: notifications.NewRepository(conn),
		Activity:      activitySvc,
	})
	require.NoError(t, err)
	return fixture{svc: svc, conn: conn}
}

func (f fixture) user(t *testing.T, name string, role enums.UserRole, lm *uuid.UUID) access.Actor {
	t.Helper()
	u := models.User{
		ID:            uuid.New(),
		Name:          name,
		Email:         name + "@example.com",
		PasswordHash:  "x",
		Role:          role,
		LineManagerID: lm,
		IsActive:      true,
		KPI:           100,
		Preferences:   types.DefaultPreferences(),
	}
	require.NoError(t, f.conn.Create(&u).Error)
	return access.Actor{ID: u.ID, Role: role}
}

func (f fixture) location(t *testing.T, owner uuid.UUID, name string) uuid.UUID {
	t.Helper()
	l := models.Location{
		ID: uuid.New(), UserID: owner, Name: name, Address: "addr", State: "Giza", City: "Giza",
		Latitude: 30, Longitude: 31,
	}
	require.NoError(t, f.conn.Create(&l).Error)
	return l.ID
}

func day(t *testing.T, value string) types.Date {
	t.Helper()
	d, err := types.ParseDate(value)
	require.NoError(t, err)
	return d
}

func point(lat, lng float64) Coordinates {
	return Coordinates{Latitude: &lat, Longitude: &lng}
}

func TestCreateBuildsEntriesTasksAndNotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rep := f.user(t, "rep", enums.UserRoleRepresentative, nil)
	a := f.location(t, rep.ID, "Clinic A")
	b := f.location(t, rep.ID, "Clinic B")

	plan, err := f.svc.Create(ctx, rep, PlanInput{
		VisitDate: day(t, "2026-03-10"),
		Region:    " North ",
		Locations: []uuid.UUID{b, a},
		Tasks:     []string{"bring samples", "  "},
		Notes:     []LocationNoteInput{{LocationID: a, Note: "ask for Dr. Samir"}},
	})
	require.NoError(t, err)

	assert.Equal(t, enums.PlanTypeDaily, plan.Type)
	assert.Equal(t, "North", plan.Region)
	assert.Equal(t, "2026-03-10", plan.VisitDate.String())
	require.Len(t, plan.Locations, 2)
	assert.Equal(t, b, plan.Locations[0].LocationID)
	assert.Equal(t, "Clinic B", plan.Locations[0].Location.Name)
	for _, entry := range plan.Locations {
		assert.Equal(t, enums.VisitStatusIncomplete, entry.Status)
	}
	require.Len(t, plan.Tasks, 1)
	assert.Equal(t, enums.TaskStatusPending, plan.Tasks[0].Status)
	require.Len(t, plan.Notes, 1)
	assert.Equal(t, enums.NoteRoleLocation, plan.Notes[0].Role)

	var acts []models.Activity
	require.NoError(t, f.conn.Where("user_id = ?", rep.ID).Find(&acts).Error)
	require.Len(t, acts, 1)
	assert.Equal(t, enums.ActivityTypePlanCreated, acts[0].Type)
}

func TestCreateRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rep := f.user(t, "rep", enums.UserRoleRepresentative, nil)
	a := f.location(t, rep.ID, "Clinic A")
	b := f.location(t, rep.ID, "Clinic B")

	_, err := f.svc.Create(ctx, rep, PlanInput{VisitDate: day(t, "2026-03-10"), Region: "n", Locations: []uuid.UUID{uuid.New()}})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	_, err = f.svc.Create(ctx, rep, PlanInput{VisitDate: day(t, "2026-03-10"), Region: "n"})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = f.svc.Create(ctx, rep, PlanInput{Region: "n", Locations: []uuid.UUID{a}})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = f.svc.Create(ctx, rep, PlanInput{
		VisitDate: day(t, "2026-03-10"), Region: "n", Locations: []uuid.UUID{a},
		Notes: []LocationNoteInput{{LocationID: b, Note: "wrong stop"}},
	})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	var count int64
	require.NoError(t, f.conn.Model(&models.VisitPlan{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rep := f.user(t, "rep", enums.UserRoleRepresentative, nil)
	other := f.user(t, "other", enums.UserRoleRepresentative, nil)
	a := f.location(t, rep.ID, "Clinic A")

	create := func(actor access.Actor, date string, planType enums.PlanType, region string, note string) {
		input := PlanInput{VisitDate: day(t, date), Type: planType, Region: region, Locations: []uuid.UUID{a}}
		if note != "" {
			input.Notes = []LocationNoteInput{{LocationID: a, Note: note}}
		}
		_, err := f.svc.Create(ctx, actor, input)
		require.NoError(t, err)
	}
	create(rep, "2026-03-12", enums.PlanTypeWeekly, "Delta", "")
	create(rep, "2026-03-10", enums.PlanTypeDaily, "Cairo East", "")
	create(rep, "2026-03-11", enums.PlanTypeDaily, "Giza", "Pharmacy by the BRIDGE")
	create(other, "2026-03-10", enums.PlanTypeDaily, "Cairo West", "")

	all, err := f.svc.List(ctx, rep, ListQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Cairo East", all[0].Region)
	assert.Equal(t, "Delta", all[2].Region)

	unknown, err := f.svc.List(ctx, rep, ListQuery{Type: "yearly"})
	require.NoError(t, err)
	assert.NotNil(t, unknown)
	assert.Empty(t, unknown)

	weekly, err := f.svc.List(ctx, rep, ListQuery{Type: "weekly"})
	require.NoError(t, err)
	assert.Len(t, weekly, 1)

	onDay, err := f.svc.ListByDate(ctx, rep, day(t, "2026-03-10"))
	require.NoError(t, err)
	require.Len(t, onDay, 1)
	assert.Equal(t, "Cairo East", onDay[0].Region)

	start, end := day(t, "2026-03-11"), day(t, "2026-03-12")
	ranged, err := f.svc.List(ctx, rep, ListQuery{StartDate: &start, EndDate: &end})
	require.NoError(t, err)
	assert.Len(t, ranged, 2)

	byRegion, err := f.svc.List(ctx, rep, ListQuery{Keyword: "cairo"})
	require.NoError(t, err)
	require.Len(t, byRegion, 1)
	byNote, err := f.svc.List(ctx, rep, ListQuery{Keyword: "bridge"})
	require.NoError(t, err)
	require.Len(t, byNote, 1)
	assert.Equal(t, "Giza", byNote[0].Region)
}

func TestListCurrentMonth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.(*service).now = func() time.Time { return time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC) }
	rep := f.user(t, "rep", enums.UserRoleRepresentative, nil)
	a := f.location(t, rep.ID, "Clinic A")
	for _, date := range []string{"2026-02-28", "2026-03-01", "2026-03-31", "2026-04-01"} {
		_, err := f.svc.Create(ctx, rep, PlanInput{VisitDate: day(t, date), Region: date, Locations: []uuid.UUID{a}})
		require.NoError(t, err)
	}
	month, err := f.svc.ListCurrentMonth(ctx, rep)
	require.NoError(t, err)
	require.Len(t, month, 2)
	assert.Equal(t, "2026-03-01", month[0].Region)
	assert.Equal(t, "2026-03-31", month[1].Region)
}

func TestUpdateKeepsRetainedVisitState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rep := f.user(t, "rep", enums.UserRoleRepresentative, nil)
	stranger := f.user(t, "stranger", enums.UserRoleGeneralManager, nil)
	a := f.location(t, rep.ID, "Clinic A")
	b := f.location(t, rep.ID, "Clinic B")
	c := f.location(t, rep.ID, "Clinic C")

	plan, err := f.svc.Create(ctx, rep, PlanInput{
		VisitDate: day(t, "2026-03-10"), Region: "n", Locations: []uuid.UUID{a, b},
		Tasks: []string{"one"},
		Notes: []LocationNoteInput{{LocationID: b, Note: "gate code 12"}},
	})
	require.NoError(t, err)
	_, err = f.svc.CompleteVisit(ctx, rep, plan.ID, a, point(30.1, 31.2))
	require.NoError(t, err)

	region := "South"
	_, err = f.svc.Update(ctx, stranger, plan.ID, UpdatePlanInput{Region: &region})
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	stops := []uuid.UUID{c, a}
	tasks := []string{"two", "three"}
	updated, err := f.svc.Update(ctx, rep, plan.ID, UpdatePlanInput{Region: &region, Locations: &stops, Tasks: &tasks})
	require.NoError(t, err)

	assert.Equal(t, "South", updated.Region)
	require.Len(t, updated.Locations, 2)
	assert.Equal(t, c, updated.Locations[0].LocationID)
	assert.Equal(t, enums.VisitStatusIncomplete, updated.Locations[0].Status)
	assert.Equal(t, a, updated.Locations[1].LocationID)
	assert.Equal(t, enums.VisitStatusCompleted, updated.Locations[1].Status)
	require.NotNil(t, updated.Locations[1].CompletedAt)
	assert.InDelta(t, 30.1, *updated.Locations[1].EndLatitude, 1e-9)
	require.Len(t, updated.Tasks, 2)
	assert.Equal(t, "two", updated.Tasks[0].Title)
	assert.Empty(t, updated.Notes, "note on the removed stop is dropped")

	bad := []uuid.UUID{uuid.New()}
	_, err = f.svc.Update(ctx, rep, plan.ID, UpdatePlanInput{Region: &region, Locations: &bad})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestVisitTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rep := f.user(t, "rep", enums.UserRoleRepresentative, nil)
	gm := f.user(t, "gm", enums.UserRoleGeneralManager, nil)
	hr := f.user(t, "hr", enums.UserRoleHR, nil)
	a := f.location(t, rep.ID, "Clinic A")
	plan, err := f.svc.Create(ctx, rep, PlanInput{VisitDate: day(t, "2026-03-10"), Region: "n", Locations: []uuid.UUID{a}})
	require.NoError(t, err)

	started, err := f.svc.StartVisit(ctx, rep, plan.ID, a, point(30, 31))
	require.NoError(t, err)
	assert.Equal(t, enums.VisitStatusIncomplete, started.Locations[0].Status)
	assert.NotNil(t, started.Locations[0].StartedAt)

	_, err = f.svc.CompleteVisit(ctx, hr, plan.ID, a, point(30, 31))
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
	_, err = f.svc.CompleteVisit(ctx, rep, plan.ID, uuid.New(), point(30, 31))
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
	_, err = f.svc.CompleteVisit(ctx, rep, plan.ID, a, point(120, 31))
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	done, err := f.svc.CompleteVisit(ctx, gm, plan.ID, a, point(30.5, 31.5))
	require.NoError(t, err)
	assert.Equal(t, enums.VisitStatusCompleted, done.Locations[0].Status)

	reset, err := f.svc.UnvisitLocation(ctx, rep, plan.ID, a)
	require.NoError(t, err)
	entry := reset.Locations[0]
	assert.Equal(t, enums.VisitStatusIncomplete, entry.Status)
	assert.Nil(t, entry.StartedAt)
	assert.Nil(t, entry.StartLatitude)
	assert.Nil(t, entry.CompletedAt)
	assert.Nil(t, entry.EndLongitude)
}

func TestTaskStatusRecordsCompletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rep := f.user(t, "rep", enums.UserRoleRepresentative, nil)
	gm := f.user(t, "gm", enums.UserRoleGeneralManager, nil)
	a := f.location(t, rep.ID, "Clinic A")
	plan, err := f.svc.Create(ctx, rep, PlanInput{VisitDate: day(t, "2026-03-10"), Region: "n", Locations: []uuid.UUID{a}, Tasks: []string{"collect order"}})
	require.NoError(t, err)
	taskID := plan.Tasks[0].ID

	_, err = f.svc.SetTaskStatus(ctx, gm, plan.ID, taskID, TaskStatusInput{Status: "completed"})
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
	_, err = f.svc.SetTaskStatus(ctx, rep, plan.ID, taskID, TaskStatusInput{Status: "done"})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	updated, err := f.svc.SetTaskStatus(ctx, rep, plan.ID, taskID, TaskStatusInput{Status: "completed"})
	require.NoError(t, err)
	assert.Equal(t, enums.TaskStatusCompleted, updated.Tasks[0].Status)

	reopened, err := f.svc.SetTaskStatus(ctx, rep, plan.ID, taskID, TaskStatusInput{Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, enums.TaskStatusPending, reopened.Tasks[0].Status)

	var completions int64
	require.NoError(t, f.conn.Model(&models.Activity{}).
		Where("user_id = ? AND type = ?", rep.ID, enums.ActivityTypeTaskCompleted).Count(&completions).Error)
	assert.Equal(t, int64(1), completions)
}

func TestManagerNoteNotifiesOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lm := f.user(t, "Laila", enums.UserRoleLineManager, nil)
	rep := f.user(t, "rep", enums.UserRoleRepresentative, &lm.ID)
	area := f.user(t, "area", enums.UserRoleAreaManager, nil)
	a := f.location(t, rep.ID, "Clinic A")
	plan, err := f.svc.Create(ctx, rep, PlanInput{VisitDate: day(t, "2026-03-10"), Region: "n", Locations: []uuid.UUID{a}})
	require.NoError(t, err)

	_, err = f.svc.AddManagerNote(ctx, area, plan.ID, ManagerNoteInput{LocationID: a, Note: "hi"})
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
	_, err = f.svc.AddManagerNote(ctx, rep, plan.ID, ManagerNoteInput{LocationID: a, Note: "hi"})
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
	_, err = f.svc.AddManagerNote(ctx, lm, plan.ID, ManagerNoteInput{LocationID: uuid.New(), Note: "hi"})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	updated, err := f.svc.AddManagerNote(ctx, lm, plan.ID, ManagerNoteInput{LocationID: a, Note: "push the new syrup"})
	require.NoError(t, err)
	require.Len(t, updated.Notes, 1)
	note := updated.Notes[0]
	assert.Equal(t, enums.NoteRoleLM, note.Role)
	assert.Equal(t, lm.ID, *note.AuthorID)

	var rows []models.Notification
	require.NoError(t, f.conn.Where("recipient_id = ?", rep.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	n := rows[0]
	assert.Equal(t, enums.NotificationTypePlanUpdate, n.Type)
	assert.Equal(t, enums.NotificationPriorityMedium, n.Priority)
	assert.Equal(t, "Laila (LM) added a note on Clinic A for your visit on 2026-03-10", n.Message)
	require.NotNil(t, n.ActionURL)
	assert.Equal(t, "/plans/"+plan.ID.String(), *n.ActionURL)
	assert.Equal(t, note.ID.String(), n.Metadata["noteId"])
}

func TestDetailAndHierarchyListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lm := f.user(t, "lm", enums.UserRoleLineManager, nil)
	otherLM := f.user(t, "otherlm", enums.UserRoleLineManager, nil)
	rep := f.user(t, "rep", enums.UserRoleRepresentative, &lm.ID)
	peer := f.user(t, "peer", enums.UserRoleRepresentative, nil)
	hr := f.user(t, "hr", enums.UserRoleHR, nil)
	a := f.location(t, rep.ID, "Clinic A")

	mine, err := f.svc.Create(ctx, rep, PlanInput{VisitDate: day(t, "2026-03-10"), Region: "rep", Locations: []uuid.UUID{a}})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, peer, PlanInput{VisitDate: day(t, "2026-03-11"), Region: "peer", Locations: []uuid.UUID{a}})
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, lm, mine.ID)
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, otherLM, mine.ID)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
	_, err = f.svc.Get(ctx, peer, mine.ID)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
	_, err = f.svc.Get(ctx, hr, uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	team, err := f.svc.ListUnderMe(ctx, lm, RangeQuery{})
	require.NoError(t, err)
	require.Len(t, team, 1)
	require.NotNil(t, team[0].User)
	assert.Equal(t, "rep", team[0].User.Name)

	none, err := f.svc.ListUnderMe(ctx, otherLM, RangeQuery{})
	require.NoError(t, err)
	assert.Empty(t, none)

	everyone, err := f.svc.ListUnderMe(ctx, hr, RangeQuery{})
	require.NoError(t, err)
	assert.Len(t, everyone, 2)

	start := day(t, "2026-03-11")
	ranged, err := f.svc.ListUnderMe(ctx, hr, RangeQuery{StartDate: &start})
	require.NoError(t, err)
	assert.Len(t, ranged, 1)

	_, err = f.svc.ListUnderMe(ctx, rep, RangeQuery{})
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
}

func TestDeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rep := f.user(t, "rep", enums.UserRoleRepresentative, nil)
	hr := f.user(t, "hr", enums.UserRoleHR, nil)
	admin := f.user(t, "admin", enums.UserRoleAdmin, nil)
	a := f.location(t, rep.ID, "Clinic A")
	plan, err := f.svc.Create(ctx, rep, PlanInput{
		VisitDate: day(t, "2026-03-10"), Region: "n", Locations: []uuid.UUID{a},
		Tasks: []string{"t"}, Notes: []LocationNoteInput{{LocationID: a, Note: "n"}},
	})
	require.NoError(t, err)
	monthlyID := uuid.New()
	require.NoError(t, f.conn.Create(&models.MonthlyPlan{
		ID: monthlyID, UserID: rep.ID, StartDate: day(t, "2026-03-01").Time, EndDate: day(t, "2026-03-31").Time,
		Entries: []models.MonthlyPlanEntry{{PlanID: plan.ID, Position: 0}},
	}).Error)

	err = f.svc.Delete(ctx, hr, plan.ID)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	require.NoError(t, f.svc.Delete(ctx, admin, plan.ID))
	for _, model := range []any{&models.VisitPlan{}, &models.PlanLocation{}, &models.PlanTask{}, &models.PlanNote{}, &models.MonthlyPlanEntry{}} {
		var count int64
		require.NoError(t, f.conn.Model(model).Count(&count).Error)
		assert.Zero(t, count, "%T", model)
	}
	err = f.svc.Delete(ctx, rep, plan.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}
