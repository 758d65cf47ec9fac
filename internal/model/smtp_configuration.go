// internal/model/smtp_configuration.go
package model

import "time"

type SmtpConfiguration struct {
	ID        int       `db:"id" json:"id"`
	UserID    int       `db:"user_id" json:"user_id"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	Host      string    `db:"smtp_host" json:"smtp_host"`
	Port      int       `db:"smtp_port" json:"smtp_port"`
	Username  string    `db:"smtp_user" json:"smtp_user"`
	Password  string    `db:"smtp_password" json:"-"`
	FromEmail string    `db:"from_email" json:"from_email"`
	FromName  string    `db:"from_name" json:"from_name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
