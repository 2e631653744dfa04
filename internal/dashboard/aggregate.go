package dashboard

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/medhealth/fieldforce-backend/internal/access"
	"github.com/medhealth/fieldforce-backend/internal/kpi"
	"github.com/medhealth/fieldforce-backend/internal/users"
	"github.com/medhealth/fieldforce-backend/pkg/db/models"
	"github.com/medhealth/fieldforce-backend/pkg/enums"
)

// Settings are the knobs the aggregate depends on.
type Settings struct {
	Policy          kpi.Policy
	YearlyCap       int
	LeaderboardSize int
}

// Dashboard is the assembled GET /dashboard payload.
type Dashboard struct {
	User                   *users.UserDTO    `json:"user"`
	RecentActivities       []models.Activity `json:"recentActivities"`
	Notifications          NotificationStats `json:"notifications"`
	SystemStats            SystemStats       `json:"systemStats"`
	Users                  []UserRow         `json:"users"`
	AllEmployeesMonthlyKPI []MonthlyAverage  `json:"allEmployeesMonthlyKPI"`
	GMStats                *GMStats          `json:"gmStats,omitempty"`
	HRStats                *HRStats          `json:"hrStats,omitempty"`
}

type NotificationStats struct {
	Total  int `json:"total"`
	Unread int `json:"unread"`
}

type SystemStats struct {
	Users         UserStats         `json:"users"`
	Locations     LocationStats     `json:"locations"`
	Plans         PlanStats         `json:"plans"`
	Notifications NotificationStats `json:"notifications"`
}

type UserStats struct {
	Total  int                    `json:"total"`
	Active int                    `json:"active"`
	ByRole map[enums.UserRole]int `json:"byRole"`
}

type LocationStats struct {
	Total int `json:"total"`
}

// PlanStats covers the current month.
type PlanStats struct {
	Total           int `json:"total"`
	TotalVisits     int `json:"totalVisits"`
	CompletedVisits int `json:"completedVisits"`
	CompletionRate  int `json:"completionRate"`
}

// UserRow is one user's breakdown.
type UserRow struct {
	ID               uuid.UUID      `json:"id"`
	Name             string         `json:"name"`
	Email            string         `json:"email"`
	Role             enums.UserRole `json:"role"`
	KPIData          kpi.Score      `json:"kpiData"`
	PlanData         PlanData       `json:"planData"`
	NotificationData struct {
		Unread int `json:"unread"`
	} `json:"notificationData"`
	HolidayData HolidayData  `json:"holidayData"`
	MonthlyKPI  []MonthPoint `json:"monthlyKPI"`
}

type PlanData struct {
	LocationsCount int `json:"locationsCount"`
	ActivePlans    int `json:"activePlans"`
}

type HolidayData struct {
	Taken     int `json:"taken"`
	Remaining int `json:"remaining"`
}

type MonthPoint struct {
	Month    int `json:"month"`
	Achieved int `json:"achieved"`
	Target   int `json:"target"`
}

// MonthlyAverage is the team completion average of one month.
type MonthlyAverage struct {
	Month     int `json:"month"`
	Year      int `json:"year"`
	Average   int `json:"average"`
	Employees int `json:"employees"`
	Target    int `json:"target"`
}

type Performer struct {
	ID   uuid.UUID      `json:"id"`
	Name string         `json:"name"`
	Role enums.UserRole `json:"role"`
	KPI  int            `json:"kpi"`
}

type GMStats struct {
	TopPerformers   []Performer `json:"topPerformers"`
	Underperformers []Performer `json:"underperformers"`
}

type HolidayTaker struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Taken int       `json:"taken"`
}

type HRStats struct {
	TotalHolidaysTaken int            `json:"totalHolidaysTaken"`
	TotalRemaining     int            `json:"totalRemaining"`
	TopHolidayTakers   []HolidayTaker `json:"topHolidayTakers"`
}

// Aggregate assembles the dashboard for viewer from a snapshot. It performs
// no I/O; the caller fills User and RecentActivities.
func Aggregate(snap *Snapshot, viewer access.Actor, now time.Time, settings Settings) *Dashboard {
	now = now.UTC()
	month := kpi.MonthOf(now)
	months := kpi.YearToDate(now)
	byMonth := kpi.ByUserMonth(snap.Plans)

	d := &Dashboard{
		RecentActivities: []models.Activity{},
		Users:            []UserRow{},
	}
	own := snap.Notifications[viewer.ID]
	d.Notifications = NotificationStats{Total: own.Total, Unread: own.Unread}
	d.SystemStats = systemStats(snap, month)

	visible := visibleUsers(snap.Users, viewer)
	for _, u := range snap.Users {
		if _, ok := visible[u.ID]; !ok {
			continue
		}
		d.Users = append(d.Users, userRow(u, snap, byMonth[u.ID], month, months, now, settings))
	}
	d.AllEmployeesMonthlyKPI = teamAverages(snap.Users, byMonth, months, settings.Policy)

	switch viewer.Role {
	case enums.UserRoleGeneralManager:
		d.GMStats = gmStats(snap.Users, settings)
	case enums.UserRoleHR:
		d.HRStats = hrStats(snap.Users, settings)
	}
	return d
}

func systemStats(snap *Snapshot, month kpi.Period) SystemStats {
	stats := SystemStats{Users: UserStats{ByRole: map[enums.UserRole]int{}}}
	for _, u := range snap.Users {
		stats.Users.Total++
		if u.IsActive {
			stats.Users.Active++
		}
		stats.Users.ByRole[u.Role]++
	}
	for _, n := range snap.Locations {
		stats.Locations.Total += n
	}
	for _, p := range snap.Plans {
		if !month.Contains(p.VisitDate) {
			continue
		}
		stats.Plans.Total++
		stats.Plans.TotalVisits += p.Total
		stats.Plans.CompletedVisits += p.Completed
	}
	stats.Plans.CompletionRate = percent(stats.Plans.CompletedVisits, stats.Plans.TotalVisits)
	for _, n := range snap.Notifications {
		stats.Notifications.Total += n.Total
		stats.Notifications.Unread += n.Unread
	}
	return stats
}

// visibleUsers is everyone for back office, the viewer plus their reporting
// subtree for managers, and only the viewer otherwise.
func visibleUsers(all []models.User, viewer access.Actor) map[uuid.UUID]struct{} {
	out := map[uuid.UUID]struct{}{viewer.ID: {}}
	switch {
	case viewer.HasRole(access.BackOffice...):
		for _, u := range all {
			out[u.ID] = struct{}{}
		}
	case viewer.Role.IsManager():
		for _, id := range users.NewHierarchy(all).Subordinates(viewer.ID) {
			out[id] = struct{}{}
		}
	}
	return out
}

func userRow(u models.User, snap *Snapshot, tallies map[int]kpi.Tally, month kpi.Period, months []kpi.Period, now time.Time, settings Settings) UserRow {
	current := tallies[month.Month]
	row := UserRow{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Role:    u.Role,
		KPIData: settings.Policy.Evaluate(current.Completed, current.Total),
		PlanData: PlanData{
			LocationsCount: snap.Locations[u.ID],
			ActivePlans:    activePlans(snap.Plans, u.ID, now),
		},
		HolidayData: HolidayData{Taken: u.HolidaysTaken, Remaining: settings.YearlyCap - u.HolidaysTaken},
		MonthlyKPI:  make([]MonthPoint, 0, len(months)),
	}
	row.NotificationData.Unread = snap.Notifications[u.ID].Unread
	for _, point := range settings.Policy.Trend(months, tallies) {
		row.MonthlyKPI = append(row.MonthlyKPI, MonthPoint{
			Month:    point.Month,
			Achieved: point.CompletionPercentage,
			Target:   point.Target,
		})
	}
	return row
}

// activePlans counts plans dated today or later that still have open stops.
func activePlans(plans []kpi.PlanCounts, userID uuid.UUID, now time.Time) int {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	count := 0
	for _, p := range plans {
		if p.UserID == userID && !p.VisitDate.Before(today) && p.Completed < p.Total {
			count++
		}
	}
	return count
}

// teamAverages averages monthly completion over field staff with plans in
// that month.
func teamAverages(all []models.User, byMonth map[uuid.UUID]map[int]kpi.Tally, months []kpi.Period, policy kpi.Policy) []MonthlyAverage {
	out := make([]MonthlyAverage, 0, len(months))
	for _, m := range months {
		sum, employees := 0, 0
		for _, u := range all {
			if u.Role.IsBackOffice() {
				continue
			}
			tally, ok := byMonth[u.ID][m.Month]
			if !ok {
				continue
			}
			sum += policy.Completion(tally.Completed)
			employees++
		}
		avg := 0
		if employees > 0 {
			avg = int(decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(employees))).Round(0).IntPart())
		}
		out = append(out, MonthlyAverage{Month: m.Month, Year: m.Year, Average: avg, Employees: employees, Target: policy.TrendTarget})
	}
	return out
}

func gmStats(all []models.User, settings Settings) *GMStats {
	staff := make([]models.User, 0, len(all))
	for _, u := range all {
		if !u.Role.IsBackOffice() {
			staff = append(staff, u)
		}
	}
	sort.SliceStable(staff, func(i, j int) bool {
		if staff[i].KPI != staff[j].KPI {
			return staff[i].KPI > staff[j].KPI
		}
		return staff[i].Name < staff[j].Name
	})
	stats := &GMStats{TopPerformers: []Performer{}, Underperformers: []Performer{}}
	for i, u := range staff {
		if i < settings.LeaderboardSize {
			stats.TopPerformers = append(stats.TopPerformers, performer(u))
		}
	}
	for i := len(staff) - 1; i >= 0 && len(stats.Underperformers) < settings.LeaderboardSize; i-- {
		if staff[i].KPI < settings.Policy.TrendTarget {
			stats.Underperformers = append(stats.Underperformers, performer(staff[i]))
		}
	}
	return stats
}

func hrStats(all []models.User, settings Settings) *HRStats {
	stats := &HRStats{TopHolidayTakers: []HolidayTaker{}}
	takers := make([]models.User, 0, len(all))
	for _, u := range all {
		stats.TotalHolidaysTaken += u.HolidaysTaken
		stats.TotalRemaining += settings.YearlyCap - u.HolidaysTaken
		takers = append(takers, u)
	}
	sort.SliceStable(takers, func(i, j int) bool {
		if takers[i].HolidaysTaken != takers[j].HolidaysTaken {
			return takers[i].HolidaysTaken > takers[j].HolidaysTaken
		}
		return takers[i].Name < takers[j].Name
	})
	for i, u := range takers {
		if i >= settings.LeaderboardSize {
			break
		}
		stats.TopHolidayTakers = append(stats.TopHolidayTakers, HolidayTaker{ID: u.ID, Name: u.Name, Taken: u.HolidaysTaken})
	}
	return stats
}

func performer(u models.User) Performer {
	return Performer{ID: u.ID, Name: u.Name, Role: u.Role, KPI: u.KPI}
}

func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(decimal.NewFromInt(int64(part)).
		Div(decimal.NewFromInt(int64(whole))).
		Mul(decimal.NewFromInt(100)).
		Round(0).
		IntPart())
}
