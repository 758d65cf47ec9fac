package repository

import (
	"database/sql"

	"github.com/superprospect/prospector-backend/internal/model"
)

// LinkRepositoryInterface covers the campaign-prospect lifecycle records.
type LinkRepositoryInterface interface {
	ListForScheduling(campaignID int) ([]model.CampaignProspect, error)
	GetGeneratedEmail(campaignID, prospectID int) (*model.CampaignProspect, error)
}

type LinkRepository struct {
	DB *sql.DB
}

// ListForScheduling returns the links eligible for queueing: everything except
// prospects already sent to or bounced.
func (r *LinkRepository) ListForScheduling(campaignID int) ([]model.CampaignProspect, error) {
	query := `
        SELECT campaign_id, prospect_id, email_status, generated_email_subject,
               generated_email_content, email_sent_at, email_opened_at, updated_at
        FROM campaign_prospects
        WHERE campaign_id = $1 AND email_status NOT IN ('sent', 'bounced')
        ORDER BY prospect_id
    `
	rows, err := r.DB.Query(query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := []model.CampaignProspect{}
	for rows.Next() {
		var l model.CampaignProspect
		if err := rows.Scan(&l.CampaignID, &l.ProspectID, &l.EmailStatus, &l.GeneratedEmailSubject,
			&l.GeneratedEmailContent, &l.EmailSentAt, &l.EmailOpenedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, nil
}

// GetGeneratedEmail fetches the link row only when generated content exists.
// Returns nil when the link is missing or nothing was generated yet.
func (r *LinkRepository) GetGeneratedEmail(campaignID, prospectID int) (*model.CampaignProspect, error) {
	query := `
        SELECT campaign_id, prospect_id, email_status, generated_email_subject,
               generated_email_content, email_sent_at, email_opened_at, updated_at
        FROM campaign_prospects
        WHERE campaign_id = $1 AND prospect_id = $2
          AND generated_email_content <> ''
        ORDER BY updated_at DESC
        LIMIT 1
    `
	var l model.CampaignProspect
	err := r.DB.QueryRow(query, campaignID, prospectID).Scan(
		&l.CampaignID, &l.ProspectID, &l.EmailStatus, &l.GeneratedEmailSubject,
		&l.GeneratedEmailContent, &l.EmailSentAt, &l.EmailOpenedAt, &l.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

var _ LinkRepositoryInterface = (*LinkRepository)(nil)
