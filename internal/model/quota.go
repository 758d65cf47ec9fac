// internal/model/quota.go
package model

// Quota holds the soft per-user usage counters across the four resource
// categories. Usage is recorded but never blocks an operation.
type Quota struct {
	UserID          int `db:"user_id" json:"user_id"`
	ScrapesUsed     int `db:"scrapes_used" json:"scrapes_used"`
	ScrapesLimit    int `db:"scrapes_limit" json:"scrapes_limit"`
	DeepSearchUsed  int `db:"deep_search_used" json:"deep_search_used"`
	DeepSearchLimit int `db:"deep_search_limit" json:"deep_search_limit"`
	ColdEmailsUsed  int `db:"cold_emails_used" json:"cold_emails_used"`
	ColdEmailsLimit int `db:"cold_emails_limit" json:"cold_emails_limit"`
	CheckEmailUsed  int `db:"check_email_used" json:"check_email_used"`
	CheckEmailLimit int `db:"check_email_limit" json:"check_email_limit"`
}
