// internal/service/generation_worker.go
package service

import (
	"context"
	"log"
	"time"

	"github.com/superprospect/prospector-backend/internal/model"
	"github.com/superprospect/prospector-backend/internal/queue"
	"github.com/superprospect/prospector-backend/internal/repository"
	"github.com/superprospect/prospector-backend/internal/webhook"
)

// GenerationRequester is the outbound call the worker makes per job.
type GenerationRequester interface {
	RequestGeneration(ctx context.Context, payload webhook.GenerationPayload) error
}

// GenerationWorker forwards queued generation jobs to the AI generation
// webhook and records the outcome on the job row.
type GenerationWorker struct {
	GenJobRepo repository.GenerationJobRepositoryInterface
	Requester  GenerationRequester
	Timeout    time.Duration
}

func NewGenerationWorker(repo repository.GenerationJobRepositoryInterface, requester GenerationRequester) *GenerationWorker {
	return &GenerationWorker{
		GenJobRepo: repo,
		Requester:  requester,
		Timeout:    30 * time.Second,
	}
}

// Process handles one generation message. The returned error triggers a
// requeue in the consumer.
func (w *GenerationWorker) Process(msg queue.GenerationMessage) error {
	ctx, cancel := context.WithTimeout(context.Background(), w.Timeout)
	defer cancel()

	payload := webhook.GenerationPayload{
		JobID:       msg.JobID,
		CampaignID:  msg.CampaignID,
		ProspectIDs: msg.ProspectIDs,
	}
	if err := w.Requester.RequestGeneration(ctx, payload); err != nil {
		log.Printf("⚠️ generation webhook failed for job %s: %v", msg.JobID, err)
		if markErr := w.GenJobRepo.UpdateStatus(msg.JobID, model.GenerationStatusFailed); markErr != nil {
			log.Printf("⚠️ failed to mark generation job %s failed: %v", msg.JobID, markErr)
		}
		return err
	}

	if err := w.GenJobRepo.UpdateStatus(msg.JobID, model.GenerationStatusDispatched); err != nil {
		log.Printf("⚠️ failed to mark generation job %s dispatched: %v", msg.JobID, err)
	}
	return nil
}
