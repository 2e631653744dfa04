package dashboard

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medhealth/fieldforce-backend/internal/access"
	"github.com/medhealth/fieldforce-backend/internal/kpi"
	"github.com/medhealth/fieldforce-backend/pkg/config"
	"github.com/medhealth/fieldforce-backend/pkg/db/models"
	"github.com/medhealth/fieldforce-backend/pkg/enums"
)

var aggregateNow = time.Date(2026, 3, 18, 9, 0, 0, 0, time.UTC)

func testSettings() Settings {
	return Settings{
		Policy: kpi.NewPolicy(config.KPIConfig{
			WorkingDays: 26, VisitsPerDay: 12, FullScoreThreshold: 90, PenaltyPercent: 15, TrendTarget: 85,
		}),
		YearlyCap:       27,
		LeaderboardSize: 2,
	}
}

func person(name string, role enums.UserRole, kpiScore, taken int) models.User {
	return models.User{ID: uuid.New(), Name: name, Role: role, IsActive: true, KPI: kpiScore, HolidaysTaken: taken}
}

func counts(user uuid.UUID, day time.Time, total, completed int) kpi.PlanCounts {
	return kpi.PlanCounts{PlanID: uuid.New(), UserID: user, VisitDate: day, Total: total, Completed: completed}
}

type org struct {
	gm, hr, lm, repA, repB, loner models.User
	snap                          *Snapshot
}

func sampleOrg() org {
	o := org{
		gm:    person("Gina", enums.UserRoleGeneralManager, 100, 0),
		hr:    person("Hana", enums.UserRoleHR, 100, 2),
		lm:    person("Lina", enums.UserRoleLineManager, 85, 5),
		repA:  person("Adam", enums.UserRoleRepresentative, 100, 10),
		repB:  person("Bilal", enums.UserRoleRepresentative, 85, 0),
		loner: person("Zed", enums.UserRoleRepresentative, 85, 30),
	}
	o.repA.LineManagerID = &o.lm.ID
	o.repB.LineManagerID = &o.lm.ID
	o.loner.IsActive = false

	march := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	past := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	o.snap = &Snapshot{
		Users: []models.User{o.repA, o.repB, o.gm, o.hr, o.lm, o.loner},
		Plans: []kpi.PlanCounts{
			counts(o.repA.ID, march, 3, 1),
			counts(o.repA.ID, past, 2, 2),
			counts(o.repA.ID, feb, 312, 300),
			counts(o.repB.ID, march, 4, 4),
			counts(o.repB.ID, feb, 12, 11),
			counts(o.loner.ID, past, 1, 0),
		},
		Locations: map[uuid.UUID]int{o.repA.ID: 3, o.repB.ID: 2},
		Notifications: map[uuid.UUID]NotificationTally{
			o.repA.ID: {Total: 3, Unread: 2},
			o.gm.ID:   {Total: 1, Unread: 0},
		},
	}
	return o
}

func rowIDs(rows []UserRow) map[uuid.UUID]UserRow {
	out := make(map[uuid.UUID]UserRow, len(rows))
	for _, row := range rows {
		out[row.ID] = row
	}
	return out
}

func TestAggregateTotalsMatchPerUserSum(t *testing.T) {
	o := sampleOrg()
	d := Aggregate(o.snap, access.Actor{ID: o.gm.ID, Role: enums.UserRoleGeneralManager}, aggregateNow, testSettings())

	if len(d.Users) != len(o.snap.Users) {
		t.Fatalf("expected %d rows, got %d", len(o.snap.Users), len(d.Users))
	}
	sumVisits, sumCompleted := 0, 0
	for _, row := range d.Users {
		sumVisits += row.KPIData.TotalVisits
		sumCompleted += row.KPIData.CompletedVisits
	}
	plans := d.SystemStats.Plans
	if plans.TotalVisits != sumVisits || plans.CompletedVisits != sumCompleted {
		t.Fatalf("system %d/%d, per-user %d/%d", plans.CompletedVisits, plans.TotalVisits, sumCompleted, sumVisits)
	}
	if plans.Total != 4 || plans.TotalVisits != 10 || plans.CompletedVisits != 7 || plans.CompletionRate != 70 {
		t.Fatalf("unexpected plan stats %+v", plans)
	}

	users := d.SystemStats.Users
	if users.Total != 6 || users.Active != 5 || users.ByRole[enums.UserRoleRepresentative] != 3 {
		t.Fatalf("unexpected user stats %+v", users)
	}
	if d.SystemStats.Locations.Total != 5 {
		t.Fatalf("expected 5 locations, got %d", d.SystemStats.Locations.Total)
	}
	if d.SystemStats.Notifications.Total != 4 || d.SystemStats.Notifications.Unread != 2 {
		t.Fatalf("unexpected notification stats %+v", d.SystemStats.Notifications)
	}
	if d.Notifications.Total != 1 || d.Notifications.Unread != 0 {
		t.Fatalf("unexpected viewer notifications %+v", d.Notifications)
	}
}

func TestAggregateUserRows(t *testing.T) {
	o := sampleOrg()
	d := Aggregate(o.snap, access.Actor{ID: o.gm.ID, Role: enums.UserRoleGeneralManager}, aggregateNow, testSettings())
	rows := rowIDs(d.Users)

	a := rows[o.repA.ID]
	if a.KPIData.TotalVisits != 5 || a.KPIData.CompletedVisits != 3 || a.KPIData.RequiredVisits != 312 {
		t.Fatalf("unexpected kpi data %+v", a.KPIData)
	}
	if a.KPIData.CompletionPercentage != 1 || a.KPIData.KPI != 85 {
		t.Fatalf("unexpected score %+v", a.KPIData)
	}
	if a.PlanData.LocationsCount != 3 || a.PlanData.ActivePlans != 1 {
		t.Fatalf("unexpected plan data %+v", a.PlanData)
	}
	if a.NotificationData.Unread != 2 {
		t.Fatalf("expected 2 unread, got %d", a.NotificationData.Unread)
	}
	if a.HolidayData.Taken != 10 || a.HolidayData.Remaining != 17 {
		t.Fatalf("unexpected holiday data %+v", a.HolidayData)
	}
	if len(a.MonthlyKPI) != 3 {
		t.Fatalf("expected Jan..Mar, got %d points", len(a.MonthlyKPI))
	}
	if a.MonthlyKPI[1].Month != 2 || a.MonthlyKPI[1].Achieved != 96 || a.MonthlyKPI[1].Target != 85 {
		t.Fatalf("unexpected february point %+v", a.MonthlyKPI[1])
	}

	// completed plans are not active
	if rows[o.repB.ID].PlanData.ActivePlans != 0 {
		t.Fatalf("expected no active plans for a finished schedule")
	}
	if rows[o.loner.ID].HolidayData.Remaining != -3 {
		t.Fatalf("remaining may go negative, got %d", rows[o.loner.ID].HolidayData.Remaining)
	}

	if d.Users[0].Name != "Adam" {
		t.Fatalf("rows should keep snapshot order, got %s first", d.Users[0].Name)
	}
}

func TestAggregateRowScopeByRole(t *testing.T) {
	o := sampleOrg()
	settings := testSettings()

	hr := Aggregate(o.snap, access.Actor{ID: o.hr.ID, Role: enums.UserRoleHR}, aggregateNow, settings)
	if len(hr.Users) != 6 {
		t.Fatalf("hr should see all users, got %d", len(hr.Users))
	}

	lm := rowIDs(Aggregate(o.snap, access.Actor{ID: o.lm.ID, Role: enums.UserRoleLineManager}, aggregateNow, settings).Users)
	if len(lm) != 3 {
		t.Fatalf("line manager should see self and two reports, got %d", len(lm))
	}
	for _, id := range []uuid.UUID{o.lm.ID, o.repA.ID, o.repB.ID} {
		if _, ok := lm[id]; !ok {
			t.Fatalf("line manager is missing %s", id)
		}
	}

	rep := Aggregate(o.snap, access.Actor{ID: o.repB.ID, Role: enums.UserRoleRepresentative}, aggregateNow, settings)
	if len(rep.Users) != 1 || rep.Users[0].ID != o.repB.ID {
		t.Fatalf("representative should only see self")
	}
	if rep.GMStats != nil || rep.HRStats != nil {
		t.Fatalf("representative should not get leaderboards")
	}
}

func TestAggregateTeamAverages(t *testing.T) {
	o := sampleOrg()
	d := Aggregate(o.snap, access.Actor{ID: o.gm.ID, Role: enums.UserRoleGeneralManager}, aggregateNow, testSettings())

	if len(d.AllEmployeesMonthlyKPI) != 3 {
		t.Fatalf("expected 3 months, got %d", len(d.AllEmployeesMonthlyKPI))
	}
	jan, feb, mar := d.AllEmployeesMonthlyKPI[0], d.AllEmployeesMonthlyKPI[1], d.AllEmployeesMonthlyKPI[2]
	if jan.Employees != 0 || jan.Average != 0 {
		t.Fatalf("january had no plans, got %+v", jan)
	}
	// 300/312 = 96, 11/312 = 4
	if feb.Employees != 2 || feb.Average != 50 {
		t.Fatalf("unexpected february average %+v", feb)
	}
	if mar.Employees != 3 || mar.Target != 85 {
		t.Fatalf("unexpected march average %+v", mar)
	}
}

func TestAggregateLeaderboards(t *testing.T) {
	o := sampleOrg()
	settings := testSettings()

	gm := Aggregate(o.snap, access.Actor{ID: o.gm.ID, Role: enums.UserRoleGeneralManager}, aggregateNow, settings)
	if gm.GMStats == nil || gm.HRStats != nil {
		t.Fatalf("gm should get gm stats only")
	}
	top := gm.GMStats.TopPerformers
	if len(top) != 2 || top[0].ID != o.repA.ID {
		t.Fatalf("unexpected top performers %+v", top)
	}
	for _, p := range append(top, gm.GMStats.Underperformers...) {
		if p.Role.IsBackOffice() {
			t.Fatalf("back office user %s ranked", p.Name)
		}
	}
	if len(gm.GMStats.Underperformers) != 0 {
		t.Fatalf("a score of 85 meets the target, got %+v", gm.GMStats.Underperformers)
	}

	o.snap.Users[1].KPI = 40
	o.snap.Users[5].KPI = 60
	gm = Aggregate(o.snap, access.Actor{ID: o.gm.ID, Role: enums.UserRoleGeneralManager}, aggregateNow, settings)
	under := gm.GMStats.Underperformers
	if len(under) != 2 || under[0].KPI != 40 || under[1].KPI != 60 {
		t.Fatalf("underperformers should be lowest first, got %+v", under)
	}

	hr := Aggregate(o.snap, access.Actor{ID: o.hr.ID, Role: enums.UserRoleHR}, aggregateNow, settings)
	if hr.HRStats == nil || hr.GMStats != nil {
		t.Fatalf("hr should get hr stats only")
	}
	if hr.HRStats.TotalHolidaysTaken != 47 || hr.HRStats.TotalRemaining != 6*27-47 {
		t.Fatalf("unexpected hr totals %+v", hr.HRStats)
	}
	takers := hr.HRStats.TopHolidayTakers
	if len(takers) != 2 || takers[0].ID != o.loner.ID || takers[1].ID != o.repA.ID {
		t.Fatalf("unexpected holiday takers %+v", takers)
	}
}

func TestAggregateLeaderboardsAreCapped(t *testing.T) {
	settings := testSettings()
	settings.LeaderboardSize = 5

	gmUser := person("Gina", enums.UserRoleGeneralManager, 100, 0)
	snap := &Snapshot{Users: []models.User{gmUser}}
	for i := 0; i < 8; i++ {
		snap.Users = append(snap.Users, person(string(rune('A'+i)), enums.UserRoleRepresentative, 70+i, 0))
	}

	gm := Aggregate(snap, access.Actor{ID: gmUser.ID, Role: enums.UserRoleGeneralManager}, aggregateNow, settings)
	if len(gm.GMStats.TopPerformers) != 5 {
		t.Fatalf("expected 5 top performers got %d", len(gm.GMStats.TopPerformers))
	}
	under := gm.GMStats.Underperformers
	if len(under) != 5 {
		t.Fatalf("expected 5 underperformers got %d", len(under))
	}
	for i, p := range under {
		if p.KPI != 70+i {
			t.Fatalf("underperformer %d: expected kpi %d got %d", i, 70+i, p.KPI)
		}
	}
}

func TestTopHolidayTakersIncludeUsersWithNoLeave(t *testing.T) {
	settings := testSettings()
	settings.LeaderboardSize = 5

	hrUser := person("Hana", enums.UserRoleHR, 100, 0)
	rep := person("Adam", enums.UserRoleRepresentative, 90, 4)
	snap := &Snapshot{Users: []models.User{rep, hrUser}}

	hr := Aggregate(snap, access.Actor{ID: hrUser.ID, Role: enums.UserRoleHR}, aggregateNow, settings)
	takers := hr.HRStats.TopHolidayTakers
	if len(takers) != 2 || takers[0].ID != rep.ID || takers[1].ID != hrUser.ID || takers[1].Taken != 0 {
		t.Fatalf("unexpected holiday takers %+v", takers)
	}
}
