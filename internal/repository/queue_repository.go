package repository

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/superprospect/prospector-backend/internal/model"
)

// QueueRepositoryInterface covers the email send queue.
type QueueRepositoryInterface interface {
	BulkEnqueue(campaignID, scheduleID int, prospectIDs []int) (int, error)
	SelectBatch(scheduleID, limit int) ([]model.QueueItem, error)
	CountSentSince(campaignID int, since time.Time) (int, error)
	MarkSent(itemID, campaignID, prospectID int, sentAt time.Time) error
	MarkFailed(itemID int, reason string) error
	MarkRetrying(itemID int, reason string) error
	DeleteForSchedule(scheduleID int) (int, error)
}

type QueueRepository struct {
	DB *sql.DB
}

// BulkEnqueue inserts one pending item per prospect, ignoring prospects that
// already hold a queue row for this campaign. Returns the number of rows
// actually inserted.
func (r *QueueRepository) BulkEnqueue(campaignID, scheduleID int, prospectIDs []int) (int, error) {
	if len(prospectIDs) == 0 {
		return 0, nil
	}
	ids := make([]int64, len(prospectIDs))
	for i, id := range prospectIDs {
		ids[i] = int64(id)
	}
	query := `
        INSERT INTO email_queue (campaign_id, prospect_id, schedule_id, status, priority, attempts, created_at)
        SELECT $1, unnest($2::bigint[]), $3, 'pending', 0, 0, NOW()
        ON CONFLICT (campaign_id, prospect_id) DO NOTHING
    `
	res, err := r.DB.Exec(query, campaignID, pq.Array(ids), scheduleID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// SelectBatch returns up to limit dispatchable items for one schedule,
// highest priority first, oldest first within equal priority.
func (r *QueueRepository) SelectBatch(scheduleID, limit int) ([]model.QueueItem, error) {
	query := `
        SELECT id, campaign_id, prospect_id, schedule_id, status, priority, attempts, last_error, created_at, sent_at
        FROM email_queue
        WHERE schedule_id = $1 AND status IN ('pending', 'retrying')
        ORDER BY priority DESC, created_at ASC
        LIMIT $2
    `
	rows, err := r.DB.Query(query, scheduleID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []model.QueueItem{}
	for rows.Next() {
		var it model.QueueItem
		if err := rows.Scan(&it.ID, &it.CampaignID, &it.ProspectID, &it.ScheduleID, &it.Status,
			&it.Priority, &it.Attempts, &it.LastError, &it.CreatedAt, &it.SentAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// CountSentSince counts items sent for a campaign since the given instant,
// used for daily quota accounting.
func (r *QueueRepository) CountSentSince(campaignID int, since time.Time) (int, error) {
	var count int
	err := r.DB.QueryRow(`
        SELECT COUNT(*)
        FROM email_queue
        WHERE campaign_id = $1 AND status = 'sent' AND sent_at >= $2`, campaignID, since).Scan(&count)
	return count, err
}

// MarkSent flips the queue row to sent and the lifecycle record to sent in a
// single transaction so a crash can never record one without the other.
func (r *QueueRepository) MarkSent(itemID, campaignID, prospectID int, sentAt time.Time) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`
        UPDATE email_queue
        SET status='sent', sent_at=$1, last_error='', attempts=attempts+1
        WHERE id=$2`, sentAt, itemID); err != nil {
		tx.Rollback()
		return err
	}

	if _, err := tx.Exec(`
        UPDATE campaign_prospects
        SET email_status='sent', email_sent_at=$1, updated_at=NOW()
        WHERE campaign_id=$2 AND prospect_id=$3`, sentAt, campaignID, prospectID); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// MarkFailed records a terminal failure on the item.
func (r *QueueRepository) MarkFailed(itemID int, reason string) error {
	query := `UPDATE email_queue SET status='failed', last_error=$1, attempts=attempts+1 WHERE id=$2`
	_, err := r.DB.Exec(query, reason, itemID)
	return err
}

// MarkRetrying records a transient failure; the item stays eligible for the
// next processor pass.
func (r *QueueRepository) MarkRetrying(itemID int, reason string) error {
	query := `UPDATE email_queue SET status='retrying', last_error=$1, attempts=attempts+1 WHERE id=$2`
	_, err := r.DB.Exec(query, reason, itemID)
	return err
}

// DeleteForSchedule removes all undelivered items of a cancelled schedule.
func (r *QueueRepository) DeleteForSchedule(scheduleID int) (int, error) {
	res, err := r.DB.Exec(`DELETE FROM email_queue WHERE schedule_id=$1 AND status IN ('pending', 'retrying')`, scheduleID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

var _ QueueRepositoryInterface = (*QueueRepository)(nil)
