package domain

import "time"

// AncReminderPlan is the structured result of the antenatal-care scheduling
// calculation. Derived per request, never persisted.
type AncReminderPlan struct {
	CurrentWeek   int       `json:"current_week"`
	TargetWeek    int       `json:"target_week"`
	NextVisitDate time.Time `json:"next_visit_date"`
	IntervalLabel string    `json:"interval_label"`
	Overdue       bool      `json:"overdue"`
}
