package repository

import (
	"database/sql"
	"fmt"
	"time"

	appErrors "github.com/superprospect/prospector-backend/internal/errors"
	"github.com/superprospect/prospector-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	Create(c *model.Campaign) error
	GetByID(id int) (*model.Campaign, error)
	ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error)
	UpdateStatus(campaignID int, status string) error
	GetQueueStats(campaignID int) (map[string]int, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

func (r *CampaignRepository) Create(c *model.Campaign) error {
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = model.CampaignStatusDraft
	}
	query := `
        INSERT INTO cold_email_campaigns (user_id, name, status, created_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `
	return r.DB.QueryRow(query, c.UserID, c.Name, c.Status, c.CreatedAt).Scan(&c.ID)
}

func (r *CampaignRepository) GetByID(id int) (*model.Campaign, error) {
	query := `
        SELECT id, user_id, name, status, created_at, updated_at
        FROM cold_email_campaigns WHERE id=$1
    `
	var c model.Campaign
	err := r.DB.QueryRow(query, id).Scan(&c.ID, &c.UserID, &c.Name, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	query := `SELECT id, user_id, name, status, created_at, updated_at FROM cold_email_campaigns WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c := &model.Campaign{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}

	countQuery := `SELECT COUNT(*) FROM cold_email_campaigns WHERE 1=1`
	argsCount := []interface{}{}
	if status != "" {
		countQuery += " AND status=$1"
		argsCount = append(argsCount, status)
	}

	var total int
	if err := r.DB.QueryRow(countQuery, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

func (r *CampaignRepository) UpdateStatus(campaignID int, status string) error {
	query := `UPDATE cold_email_campaigns SET status=$1, updated_at=$2 WHERE id=$3`
	_, err := r.DB.Exec(query, status, time.Now(), campaignID)
	return err
}

// GetQueueStats returns queue item counts by status for one campaign.
func (r *CampaignRepository) GetQueueStats(campaignID int) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM email_queue WHERE campaign_id=$1 GROUP BY status`
	rows, err := r.DB.Query(query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{"pending": 0, "retrying": 0, "sent": 0, "failed": 0}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
