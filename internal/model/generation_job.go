// internal/model/generation_job.go
package model

import "time"

// Generation job statuses
const (
	GenerationStatusQueued     = "queued"
	GenerationStatusDispatched = "dispatched"
	GenerationStatusFailed     = "failed"
)

// GenerationJob records one fire-and-forget AI email-generation request for a
// batch of prospects in a campaign.
type GenerationJob struct {
	ID            string    `db:"id" json:"id"`
	CampaignID    int       `db:"campaign_id" json:"campaign_id"`
	ProspectIDs   []int     `db:"prospect_ids" json:"prospect_ids"`
	ProspectCount int       `db:"prospect_count" json:"prospect_count"`
	Status        string    `db:"status" json:"status"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
