// internal/model/queue_item.go
package model

import "time"

// Queue item statuses
const (
	QueueStatusPending  = "pending"
	QueueStatusRetrying = "retrying"
	QueueStatusSent     = "sent"
	QueueStatusFailed   = "failed"
)

// QueueItem is one prospect awaiting a scheduled send within one campaign.
// At most one row exists per (campaign_id, prospect_id).
type QueueItem struct {
	ID         int        `db:"id" json:"id"`
	CampaignID int        `db:"campaign_id" json:"campaign_id"`
	ProspectID int        `db:"prospect_id" json:"prospect_id"`
	ScheduleID int        `db:"schedule_id" json:"schedule_id"`
	Status     string     `db:"status" json:"status"` // pending, retrying, sent, failed
	Priority   int        `db:"priority" json:"priority"`
	Attempts   int        `db:"attempts" json:"attempts"`
	LastError  string     `db:"last_error" json:"last_error,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	SentAt     *time.Time `db:"sent_at" json:"sent_at,omitempty"`
}
