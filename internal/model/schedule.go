// internal/model/schedule.go
package model

import "time"

// Schedule statuses
const (
	ScheduleStatusActive    = "active"
	ScheduleStatusPaused    = "paused"
	ScheduleStatusCancelled = "cancelled"
)

// Schedule is the recurring day/window/quota policy for one campaign.
// TimeWindowStart/End are zero-padded HH:MM:SS clock strings; DaysOfWeek uses
// ISO weekdays (1=Monday .. 7=Sunday).
type Schedule struct {
	ID              int       `db:"id" json:"id"`
	CampaignID      int       `db:"campaign_id" json:"campaign_id"`
	StartDate       time.Time `db:"start_date" json:"start_date"`
	DailyLimit      int       `db:"daily_limit" json:"daily_limit"`
	TimeWindowStart string    `db:"time_window_start" json:"time_window_start"`
	TimeWindowEnd   string    `db:"time_window_end" json:"time_window_end"`
	DaysOfWeek      []int     `db:"days_of_week" json:"days_of_week"`
	Status          string    `db:"status" json:"status"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// AllowsDay reports whether the ISO weekday is in the schedule's active days.
func (s *Schedule) AllowsDay(isoWeekday int) bool {
	for _, d := range s.DaysOfWeek {
		if d == isoWeekday {
			return true
		}
	}
	return false
}
