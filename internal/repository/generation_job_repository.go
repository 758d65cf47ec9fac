package repository

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/superprospect/prospector-backend/internal/model"
)

type GenerationJobRepositoryInterface interface {
	Create(j *model.GenerationJob) error
	UpdateStatus(jobID, status string) error
}

type GenerationJobRepository struct {
	DB *sql.DB
}

func (r *GenerationJobRepository) Create(j *model.GenerationJob) error {
	j.CreatedAt = time.Now()
	if j.Status == "" {
		j.Status = model.GenerationStatusQueued
	}
	j.ProspectCount = len(j.ProspectIDs)
	ids := make([]int64, len(j.ProspectIDs))
	for i, id := range j.ProspectIDs {
		ids[i] = int64(id)
	}
	query := `
        INSERT INTO generation_jobs (id, campaign_id, prospect_ids, prospect_count, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	_, err := r.DB.Exec(query, j.ID, j.CampaignID, pq.Array(ids), j.ProspectCount, j.Status, j.CreatedAt)
	return err
}

func (r *GenerationJobRepository) UpdateStatus(jobID, status string) error {
	_, err := r.DB.Exec(`UPDATE generation_jobs SET status=$1 WHERE id=$2`, status, jobID)
	return err
}

var _ GenerationJobRepositoryInterface = (*GenerationJobRepository)(nil)
