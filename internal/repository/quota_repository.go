package repository

import (
	"database/sql"
	"fmt"

	"github.com/superprospect/prospector-backend/internal/model"
)

// Quota categories
const (
	QuotaScrapes    = "scrapes"
	QuotaDeepSearch = "deep_search"
	QuotaColdEmails = "cold_emails"
	QuotaCheckEmail = "check_email"
)

type QuotaRepositoryInterface interface {
	Get(userID int) (*model.Quota, error)
	Increment(userID int, category string, n int) error
}

type QuotaRepository struct {
	DB *sql.DB
}

func (r *QuotaRepository) Get(userID int) (*model.Quota, error) {
	query := `
        SELECT user_id, scrapes_used, scrapes_limit, deep_search_used, deep_search_limit,
               cold_emails_used, cold_emails_limit, check_email_used, check_email_limit
        FROM quotas WHERE user_id=$1
    `
	var q model.Quota
	err := r.DB.QueryRow(query, userID).Scan(
		&q.UserID, &q.ScrapesUsed, &q.ScrapesLimit, &q.DeepSearchUsed, &q.DeepSearchLimit,
		&q.ColdEmailsUsed, &q.ColdEmailsLimit, &q.CheckEmailUsed, &q.CheckEmailLimit,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}

// Increment bumps the used counter for a category. Usage is soft: the counter
// may exceed the limit and nothing here blocks the caller.
func (r *QuotaRepository) Increment(userID int, category string, n int) error {
	var column string
	switch category {
	case QuotaScrapes:
		column = "scrapes_used"
	case QuotaDeepSearch:
		column = "deep_search_used"
	case QuotaColdEmails:
		column = "cold_emails_used"
	case QuotaCheckEmail:
		column = "check_email_used"
	default:
		return fmt.Errorf("unknown quota category: %s", category)
	}
	query := fmt.Sprintf(`UPDATE quotas SET %s = %s + $1 WHERE user_id = $2`, column, column)
	_, err := r.DB.Exec(query, n, userID)
	return err
}

var _ QuotaRepositoryInterface = (*QuotaRepository)(nil)
