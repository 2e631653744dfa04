package kpi

import (
	"testing"
	"time"

	"github.com/medhealth/fieldforce-backend/pkg/config"
)

func defaultPolicy() Policy {
	return NewPolicy(config.KPIConfig{
		WorkingDays:        26,
		VisitsPerDay:       12,
		FullScoreThreshold: 90,
		PenaltyPercent:     15,
		TrendTarget:        85,
	})
}

func TestEvaluate(t *testing.T) {
	p := defaultPolicy()
	cases := []struct {
		name       string
		completed  int
		completion int
		kpi        int
	}{
		{name: "none", completed: 0, completion: 0, kpi: 85},
		{name: "rounds down below threshold", completed: 279, completion: 89, kpi: 85},
		{name: "rounds up onto threshold", completed: 280, completion: 90, kpi: 100},
		{name: "above threshold", completed: 300, completion: 96, kpi: 100},
		{name: "over required", completed: 400, completion: 128, kpi: 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := p.Evaluate(tc.completed, tc.completed+5)
			if got.RequiredVisits != 312 {
				t.Fatalf("expected required 312, got %d", got.RequiredVisits)
			}
			if got.CompletionPercentage != tc.completion {
				t.Fatalf("expected completion %d, got %d", tc.completion, got.CompletionPercentage)
			}
			if got.KPI != tc.kpi {
				t.Fatalf("expected kpi %d, got %d", tc.kpi, got.KPI)
			}
			if got.TotalVisits != tc.completed+5 {
				t.Fatalf("total not carried through: %d", got.TotalVisits)
			}
		})
	}
}

func TestEvaluateOnlyEverYieldsTwoScores(t *testing.T) {
	p := defaultPolicy()
	for completed := 0; completed <= 400; completed++ {
		if score := p.Evaluate(completed, completed).KPI; score != 100 && score != 85 {
			t.Fatalf("completed=%d produced kpi %d", completed, score)
		}
	}
}

func TestCompletionRoundsHalfAwayFromZero(t *testing.T) {
	p := Policy{WorkingDays: 2, VisitsPerDay: 4, FullScoreThreshold: 90, PenaltyPercent: 33}
	if got := p.Completion(1); got != 13 {
		t.Fatalf("expected 12.5 to round to 13, got %d", got)
	}
	if got := p.ScoreFor(10); got != 67 {
		t.Fatalf("expected penalised score 67, got %d", got)
	}
	if got := (Policy{}).Completion(10); got != 0 {
		t.Fatalf("expected zero completion without a requirement, got %d", got)
	}
}

func TestPeriods(t *testing.T) {
	now := time.Date(2026, 3, 31, 23, 59, 0, 0, time.UTC)
	march := MonthOf(now)
	if !march.Contains(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start should be inside the period")
	}
	if march.Contains(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("end should be exclusive")
	}
	if got := len(YearToDate(now)); got != 3 {
		t.Fatalf("expected three months, got %d", got)
	}
	dec, err := ParsePeriod(12, 2025, now)
	if err != nil || dec.End != time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("unexpected december period %+v, %v", dec, err)
	}
	if _, err := ParsePeriod(13, 0, now); err == nil {
		t.Fatalf("expected error for month 13")
	}
	def, err := ParsePeriod(0, 0, now)
	if err != nil || def.Month != 3 || def.Year != 2026 {
		t.Fatalf("expected current month default, got %+v", def)
	}
}

func TestTrendUsesTarget(t *testing.T) {
	p := defaultPolicy()
	months := YearToDate(time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))
	points := p.Trend(months, map[int]Tally{2: {Total: 300, Completed: 290}})
	if len(points) != 2 {
		t.Fatalf("expected two points, got %d", len(points))
	}
	if points[0].KPI != 85 || points[1].KPI != 100 {
		t.Fatalf("unexpected trend %+v", points)
	}
	if points[1].Target != 85 {
		t.Fatalf("expected target 85, got %d", points[1].Target)
	}
}
