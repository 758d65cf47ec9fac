package repository

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	appErrors "github.com/superprospect/prospector-backend/internal/errors"
	"github.com/superprospect/prospector-backend/internal/model"
)

type ScheduleRepositoryInterface interface {
	Create(s *model.Schedule) error
	GetByID(id int) (*model.Schedule, error)
	ListActive() ([]*model.Schedule, error)
	UpdateStatus(scheduleID int, status string) error
}

type ScheduleRepository struct {
	DB *sql.DB
}

func (r *ScheduleRepository) Create(s *model.Schedule) error {
	s.CreatedAt = time.Now()
	if s.Status == "" {
		s.Status = model.ScheduleStatusActive
	}
	days := make([]int64, len(s.DaysOfWeek))
	for i, d := range s.DaysOfWeek {
		days[i] = int64(d)
	}
	query := `
        INSERT INTO campaign_schedules
        (campaign_id, start_date, daily_limit, time_window_start, time_window_end, days_of_week, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id
    `
	return r.DB.QueryRow(query,
		s.CampaignID, s.StartDate, s.DailyLimit, s.TimeWindowStart, s.TimeWindowEnd,
		pq.Array(days), s.Status, s.CreatedAt,
	).Scan(&s.ID)
}

func (r *ScheduleRepository) GetByID(id int) (*model.Schedule, error) {
	query := `
        SELECT id, campaign_id, start_date, daily_limit, time_window_start, time_window_end, days_of_week, status, created_at
        FROM campaign_schedules WHERE id=$1
    `
	s, err := scanSchedule(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewScheduleNotFound(id)
		}
		return nil, err
	}
	return s, nil
}

func (r *ScheduleRepository) ListActive() ([]*model.Schedule, error) {
	query := `
        SELECT id, campaign_id, start_date, daily_limit, time_window_start, time_window_end, days_of_week, status, created_at
        FROM campaign_schedules
        WHERE status='active'
        ORDER BY id
    `
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedules := []*model.Schedule{}
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}

func (r *ScheduleRepository) UpdateStatus(scheduleID int, status string) error {
	query := `UPDATE campaign_schedules SET status=$1 WHERE id=$2`
	_, err := r.DB.Exec(query, status, scheduleID)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSchedule(row rowScanner) (*model.Schedule, error) {
	var s model.Schedule
	var days pq.Int64Array
	err := row.Scan(&s.ID, &s.CampaignID, &s.StartDate, &s.DailyLimit,
		&s.TimeWindowStart, &s.TimeWindowEnd, &days, &s.Status, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.DaysOfWeek = make([]int, len(days))
	for i, d := range days {
		s.DaysOfWeek[i] = int(d)
	}
	return &s, nil
}

var _ ScheduleRepositoryInterface = (*ScheduleRepository)(nil)
