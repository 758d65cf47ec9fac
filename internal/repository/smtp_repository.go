package repository

import (
	"database/sql"
	"time"

	"github.com/superprospect/prospector-backend/internal/model"
)

type SmtpRepositoryInterface interface {
	Create(c *model.SmtpConfiguration) error
	LatestActive(userID int) (*model.SmtpConfiguration, error)
	ListByUser(userID int) ([]model.SmtpConfiguration, error)
}

type SmtpRepository struct {
	DB *sql.DB
}

func (r *SmtpRepository) Create(c *model.SmtpConfiguration) error {
	c.CreatedAt = time.Now()
	query := `
        INSERT INTO smtp_configurations
        (user_id, is_active, smtp_host, smtp_port, smtp_user, smtp_password, from_email, from_name, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id
    `
	return r.DB.QueryRow(query,
		c.UserID, c.IsActive, c.Host, c.Port, c.Username, c.Password,
		c.FromEmail, c.FromName, c.CreatedAt,
	).Scan(&c.ID)
}

// LatestActive returns the user's most recently created active configuration,
// or nil when none exists.
func (r *SmtpRepository) LatestActive(userID int) (*model.SmtpConfiguration, error) {
	query := `
        SELECT id, user_id, is_active, smtp_host, smtp_port, smtp_user, smtp_password, from_email, from_name, created_at
        FROM smtp_configurations
        WHERE user_id=$1 AND is_active=true
        ORDER BY created_at DESC
        LIMIT 1
    `
	var c model.SmtpConfiguration
	err := r.DB.QueryRow(query, userID).Scan(
		&c.ID, &c.UserID, &c.IsActive, &c.Host, &c.Port, &c.Username,
		&c.Password, &c.FromEmail, &c.FromName, &c.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *SmtpRepository) ListByUser(userID int) ([]model.SmtpConfiguration, error) {
	query := `
        SELECT id, user_id, is_active, smtp_host, smtp_port, smtp_user, smtp_password, from_email, from_name, created_at
        FROM smtp_configurations
        WHERE user_id=$1
        ORDER BY created_at DESC
    `
	rows, err := r.DB.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	configs := []model.SmtpConfiguration{}
	for rows.Next() {
		var c model.SmtpConfiguration
		if err := rows.Scan(&c.ID, &c.UserID, &c.IsActive, &c.Host, &c.Port, &c.Username,
			&c.Password, &c.FromEmail, &c.FromName, &c.CreatedAt); err != nil {
			return nil, err
		}
		configs = append(configs, c)
	}
	return configs, nil
}

var _ SmtpRepositoryInterface = (*SmtpRepository)(nil)
