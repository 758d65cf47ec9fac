// internal/model/prospect.go
package model

import "time"

type Prospect struct {
	ID        int       `db:"id" json:"id"`
	UserID    int       `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Company   string    `db:"company" json:"company"`
	Phone     string    `db:"phone" json:"phone"`
	Website   string    `db:"website" json:"website"`
	City      string    `db:"city" json:"city"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
