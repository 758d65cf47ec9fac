// internal/service/processor_service.go
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	appErrors "github.com/superprospect/prospector-backend/internal/errors"
	"github.com/superprospect/prospector-backend/internal/lock"
	"github.com/superprospect/prospector-backend/internal/model"
	"github.com/superprospect/prospector-backend/internal/repository"
	"github.com/superprospect/prospector-backend/internal/webhook"
)

// Skip reasons reported per schedule.
const (
	SkippedLocked        = "skipped (locked)"
	SkippedWrongDay      = "skipped (wrong day)"
	SkippedOutOfWindow   = "skipped (out of window)"
	SkippedQuotaReached  = "skipped (quota reached)"
	SkippedInvalidWindow = "skipped (invalid window)"
)

// MaxSendAttempts bounds retries for transient dispatch failures. Terminal
// failures (missing content, missing SMTP config) never retry.
const MaxSendAttempts = 3

const leaseTTL = 5 * time.Minute

// ScheduleResult is one entry of the processor's aggregate response: either a
// skip reason or the number of items processed.
type ScheduleResult struct {
	Campaign  int    `json:"campaign"`
	Status    string `json:"status,omitempty"`
	Processed *int   `json:"processed,omitempty"`
}

// ProcessorService runs one sequential pass over all active schedules and
// dispatches due queue items to the external send workflow.
type ProcessorService struct {
	ScheduleRepo repository.ScheduleRepositoryInterface
	QueueRepo    repository.QueueRepositoryInterface
	CampaignRepo repository.CampaignRepositoryInterface
	ProspectRepo repository.ProspectRepositoryInterface
	LinkRepo     repository.LinkRepositoryInterface
	SmtpRepo     repository.SmtpRepositoryInterface
	QuotaRepo    repository.QuotaRepositoryInterface
	Sender       webhook.Sender
	Locker       lock.Locker
}

// ProcessQueue walks every active schedule once. A failure to list schedules
// aborts the whole invocation; everything below that is contained per
// schedule or per item.
func (s *ProcessorService) ProcessQueue(ctx context.Context, now time.Time) ([]ScheduleResult, error) {
	schedules, err := s.ScheduleRepo.ListActive()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active schedules: %w", err)
	}

	results := []ScheduleResult{}
	for _, sch := range schedules {
		results = append(results, s.processSchedule(ctx, sch, now))
	}
	return results, nil
}

func (s *ProcessorService) processSchedule(ctx context.Context, sch *model.Schedule, now time.Time) ScheduleResult {
	res := ScheduleResult{Campaign: sch.CampaignID}

	if s.Locker != nil {
		release, ok, err := s.Locker.Acquire(ctx, fmt.Sprintf("lease:schedule:%d", sch.ID), leaseTTL)
		if err != nil {
			// Lease infrastructure trouble should not stall sending; log and
			// run unguarded.
			log.Printf("⚠️ lease acquire failed for schedule %d: %v", sch.ID, err)
		} else if !ok {
			res.Status = SkippedLocked
			return res
		} else {
			defer release()
		}
	}

	if !sch.AllowsDay(isoWeekday(now)) {
		res.Status = SkippedWrongDay
		return res
	}

	windowStart, err := parseClock(sch.TimeWindowStart)
	if err != nil {
		log.Printf("⚠️ schedule %d: %v", sch.ID, err)
		res.Status = SkippedInvalidWindow
		return res
	}
	windowEnd, err := parseClock(sch.TimeWindowEnd)
	if err != nil {
		log.Printf("⚠️ schedule %d: %v", sch.ID, err)
		res.Status = SkippedInvalidWindow
		return res
	}
	nowSec := secondsOfDay(now)
	if nowSec < windowStart || nowSec > windowEnd {
		res.Status = SkippedOutOfWindow
		return res
	}

	sentToday, err := s.QueueRepo.CountSentSince(sch.CampaignID, startOfDay(now))
	if err != nil {
		log.Printf("⚠️ schedule %d: failed to count sent items: %v", sch.ID, err)
		res.Status = fmt.Sprintf("error: %v", err)
		return res
	}
	remaining := sch.DailyLimit - sentToday
	if remaining <= 0 {
		res.Status = SkippedQuotaReached
		return res
	}

	items, err := s.QueueRepo.SelectBatch(sch.ID, remaining)
	if err != nil {
		log.Printf("⚠️ schedule %d: failed to select queue items: %v", sch.ID, err)
		res.Status = fmt.Sprintf("error: %v", err)
		return res
	}

	processed := 0
	for i := range items {
		s.dispatchItem(ctx, sch, &items[i], now)
		processed++
	}
	res.Processed = &processed
	return res
}

// dispatchItem resolves supporting data for one queue item and fires the send
// webhook. Every failure is recorded on the row; nothing propagates.
func (s *ProcessorService) dispatchItem(ctx context.Context, sch *model.Schedule, item *model.QueueItem, now time.Time) {
	err := s.trySend(ctx, sch, item, now)
	if err == nil {
		return
	}

	if !appErrors.IsRetryable(err) || item.Attempts+1 >= MaxSendAttempts {
		if markErr := s.QueueRepo.MarkFailed(item.ID, err.Error()); markErr != nil {
			log.Printf("⚠️ failed to mark item %d failed: %v", item.ID, markErr)
		}
		return
	}
	if markErr := s.QueueRepo.MarkRetrying(item.ID, err.Error()); markErr != nil {
		log.Printf("⚠️ failed to mark item %d retrying: %v", item.ID, markErr)
	}
}

func (s *ProcessorService) trySend(ctx context.Context, sch *model.Schedule, item *model.QueueItem, now time.Time) error {
	campaign, err := s.CampaignRepo.GetByID(item.CampaignID)
	if err != nil {
		return err
	}

	link, err := s.LinkRepo.GetGeneratedEmail(item.CampaignID, item.ProspectID)
	if err != nil {
		return err
	}
	if link == nil {
		return appErrors.NewTerminalDispatch("No generated email found")
	}

	prospect, err := s.ProspectRepo.GetByID(item.ProspectID)
	if err != nil {
		return err
	}
	if prospect == nil {
		return appErrors.NewTerminalDispatch("Prospect not found")
	}

	smtpCfg, err := s.SmtpRepo.LatestActive(campaign.UserID)
	if err != nil {
		return err
	}
	if smtpCfg == nil {
		return appErrors.NewTerminalDispatch("No active SMTP configuration found for user")
	}

	payload := webhook.SendPayload{
		To:         prospect.Email,
		Subject:    link.GeneratedEmailSubject,
		Body:       link.GeneratedEmailContent,
		ProspectID: item.ProspectID,
		CampaignID: item.CampaignID,
		SmtpConfig: webhook.SmtpCredentials{
			Host:      smtpCfg.Host,
			Port:      smtpCfg.Port,
			User:      smtpCfg.Username,
			Pass:      smtpCfg.Password,
			FromName:  smtpCfg.FromName,
			FromEmail: smtpCfg.FromEmail,
		},
		Metadata: map[string]string{
			"campaign_name": campaign.Name,
			"prospect_name": prospect.Name,
			"schedule_id":   fmt.Sprintf("%d", sch.ID),
		},
		IdempotencyKey: sendIdempotencyKey(item.CampaignID, item.ProspectID, now),
	}

	if err := s.Sender.SendEmail(ctx, payload); err != nil {
		return err
	}

	if err := s.QueueRepo.MarkSent(item.ID, item.CampaignID, item.ProspectID, now); err != nil {
		log.Printf("⚠️ item %d sent but status update failed: %v", item.ID, err)
		return nil
	}

	// Soft usage accounting; a failure here never affects the send.
	if s.QuotaRepo != nil {
		if err := s.QuotaRepo.Increment(campaign.UserID, repository.QuotaColdEmails, 1); err != nil {
			log.Printf("⚠️ failed to increment cold email quota for user %d: %v", campaign.UserID, err)
		}
	}
	return nil
}

// sendIdempotencyKey is stable per campaign, prospect and calendar day, so a
// timed-out request replayed on the next pass carries the same key and the
// receiver can de-duplicate.
func sendIdempotencyKey(campaignID, prospectID int, now time.Time) string {
	raw := fmt.Sprintf("%d:%d:%s", campaignID, prospectID, now.Format("2006-01-02"))
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
