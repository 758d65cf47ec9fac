// internal/model/campaign_prospect.go
package model

import "time"

// Email lifecycle statuses on a campaign-prospect link.
const (
	EmailStatusNotGenerated = "not_generated"
	EmailStatusGenerated    = "generated"
	EmailStatusSent         = "sent"
	EmailStatusBounced      = "bounced"
	EmailStatusReplied      = "replied"
	EmailStatusOpened       = "opened"
	EmailStatusClicked      = "clicked"
)

// CampaignProspect is the per-prospect lifecycle record within a campaign.
type CampaignProspect struct {
	CampaignID            int        `db:"campaign_id" json:"campaign_id"`
	ProspectID            int        `db:"prospect_id" json:"prospect_id"`
	EmailStatus           string     `db:"email_status" json:"email_status"`
	GeneratedEmailSubject string     `db:"generated_email_subject" json:"generated_email_subject"`
	GeneratedEmailContent string     `db:"generated_email_content" json:"generated_email_content"`
	EmailSentAt           *time.Time `db:"email_sent_at" json:"email_sent_at,omitempty"`
	EmailOpenedAt         *time.Time `db:"email_opened_at" json:"email_opened_at,omitempty"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}
