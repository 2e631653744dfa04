// Package kpi scores representatives on completed visits against a
// monthly requirement.
package kpi

import (
	"github.com/shopspring/decimal"

	"github.com/medhealth/fieldforce-backend/pkg/config"
)

var hundred = decimal.NewFromInt(100)

// Policy holds the scoring constants.
type Policy struct {
	WorkingDays        int
	VisitsPerDay       int
	FullScoreThreshold int
	PenaltyPercent     int
	TrendTarget        int
}

// NewPolicy maps configuration onto a Policy.
func NewPolicy(cfg config.KPIConfig) Policy {
	return Policy{
		WorkingDays:        cfg.WorkingDays,
		VisitsPerDay:       cfg.VisitsPerDay,
		FullScoreThreshold: cfg.FullScoreThreshold,
		PenaltyPercent:     cfg.PenaltyPercent,
		TrendTarget:        cfg.TrendTarget,
	}
}

// Score is the evaluated KPI of one period.
type Score struct {
	TotalVisits          int `json:"totalVisits"`
	CompletedVisits      int `json:"completedVisits"`
	RequiredVisits       int `json:"requiredVisits"`
	CompletionPercentage int `json:"completionPercentage"`
	KPI                  int `json:"kpi"`
}

// Required is the number of visits expected in a month.
func (p Policy) Required() int {
	return p.WorkingDays * p.VisitsPerDay
}

// Completion returns completed/required as a whole percentage, rounded half
// away from zero. It is 0 when nothing is required.
func (p Policy) Completion(completed int) int {
	required := p.Required()
	if required <= 0 {
		return 0
	}
	return int(decimal.NewFromInt(int64(completed)).
		Div(decimal.NewFromInt(int64(required))).
		Mul(hundred).
		Round(0).
		IntPart())
}

// ScoreFor maps a completion percentage to the KPI score.
func (p Policy) ScoreFor(completion int) int {
	if completion >= p.FullScoreThreshold {
		return 100
	}
	factor := decimal.NewFromInt(1).Sub(decimal.NewFromInt(int64(p.PenaltyPercent)).Div(hundred))
	return int(hundred.Mul(factor).Round(0).IntPart())
}

// Evaluate scores one period.
func (p Policy) Evaluate(completed, total int) Score {
	completion := p.Completion(completed)
	return Score{
		TotalVisits:          total,
		CompletedVisits:      completed,
		RequiredVisits:       p.Required(),
		CompletionPercentage: completion,
		KPI:                  p.ScoreFor(completion),
	}
}

// Trend scores each month from per-month tallies keyed by month number.
func (p Policy) Trend(months []Period, tallies map[int]Tally) []TrendPoint {
	out := make([]TrendPoint, 0, len(months))
	for _, m := range months {
		score := p.Evaluate(tallies[m.Month].Completed, tallies[m.Month].Total)
		out = append(out, TrendPoint{
			Month:                m.Month,
			Year:                 m.Year,
			CompletionPercentage: score.CompletionPercentage,
			KPI:                  score.KPI,
			Target:               p.TrendTarget,
		})
	}
	return out
}
