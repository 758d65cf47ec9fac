package repository

import (
	"database/sql"

	"github.com/superprospect/prospector-backend/internal/model"
)

// ProspectRepositoryInterface defines methods used by services
type ProspectRepositoryInterface interface {
	GetByID(id int) (*model.Prospect, error)
	ListByCampaign(campaignID int) ([]model.Prospect, error)
}

// ProspectRepository is the concrete implementation
type ProspectRepository struct {
	DB *sql.DB
}

// GetByID fetches a prospect by ID
func (r *ProspectRepository) GetByID(id int) (*model.Prospect, error) {
	query := `
        SELECT id, user_id, name, email, company, phone, website, city, created_at
        FROM prospects
        WHERE id = $1
    `
	row := r.DB.QueryRow(query, id)

	var p model.Prospect
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Email, &p.Company, &p.Phone, &p.Website, &p.City, &p.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return &p, nil
}

// ListByCampaign fetches all prospects linked to a campaign
func (r *ProspectRepository) ListByCampaign(campaignID int) ([]model.Prospect, error) {
	query := `
        SELECT p.id, p.user_id, p.name, p.email, p.company, p.phone, p.website, p.city, p.created_at
        FROM prospects p
        JOIN campaign_prospects cp ON cp.prospect_id = p.id
        WHERE cp.campaign_id = $1
        ORDER BY p.id
    `
	rows, err := r.DB.Query(query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prospects := []model.Prospect{}
	for rows.Next() {
		var p model.Prospect
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Email, &p.Company, &p.Phone, &p.Website, &p.City, &p.CreatedAt); err != nil {
			return nil, err
		}
		prospects = append(prospects, p)
	}
	return prospects, nil
}

var _ ProspectRepositoryInterface = (*ProspectRepository)(nil)
