package models

// All lists every persisted model in dependency order.
func All() []any {
	return []any{
		&User{},
		&Location{},
		&VisitPlan{},
		&PlanLocation{},
		&PlanTask{},
		&PlanNote{},
		&MonthlyPlan{},
		&MonthlyPlanEntry{},
		&HolidayRequest{},
		&HolidayApproval{},
		&Notification{},
		&Activity{},
	}
}
