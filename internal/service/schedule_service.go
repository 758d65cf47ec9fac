// internal/service/schedule_service.go
package service

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/superprospect/prospector-backend/internal/model"
	"github.com/superprospect/prospector-backend/internal/queue"
	"github.com/superprospect/prospector-backend/internal/repository"
)

// ScheduleService creates send schedules and seeds the queue.
type ScheduleService struct {
	ScheduleRepo repository.ScheduleRepositoryInterface
	QueueRepo    repository.QueueRepositoryInterface
	LinkRepo     repository.LinkRepositoryInterface
	CampaignRepo repository.CampaignRepositoryInterface
	GenJobRepo   repository.GenerationJobRepositoryInterface
	Publisher    queue.Publisher
}

type CreateScheduleParams struct {
	StartDate       string `json:"start_date" validate:"required,datetime=2006-01-02"`
	DailyLimit      int    `json:"daily_limit" validate:"required,min=1"`
	TimeWindowStart string `json:"time_window_start" validate:"required"`
	TimeWindowEnd   string `json:"time_window_end" validate:"required"`
	DaysOfWeek      []int  `json:"days_of_week" validate:"required,min=1,dive,min=1,max=7"`
}

type CreateScheduleResult struct {
	ScheduleID          int  `json:"schedule_id"`
	QueuedCount         int  `json:"queued_count"`
	GenerationTriggered bool `json:"generation_triggered"`
	GeneratedCount      int  `json:"generated_count"`
}

// CreateSchedule inserts the schedule row, queues every eligible prospect and
// fires a generation job for the ones without content yet. The generation
// publish is fire-and-forget: its failure is logged, never surfaced.
func (s *ScheduleService) CreateSchedule(campaignID int, params CreateScheduleParams) (*CreateScheduleResult, error) {
	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}

	startDate, err := time.Parse("2006-01-02", params.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start_date: %w", err)
	}
	if _, err := parseClock(params.TimeWindowStart); err != nil {
		return nil, err
	}
	if _, err := parseClock(params.TimeWindowEnd); err != nil {
		return nil, err
	}

	sch := &model.Schedule{
		CampaignID:      campaign.ID,
		StartDate:       startDate,
		DailyLimit:      params.DailyLimit,
		TimeWindowStart: params.TimeWindowStart,
		TimeWindowEnd:   params.TimeWindowEnd,
		DaysOfWeek:      params.DaysOfWeek,
		Status:          model.ScheduleStatusActive,
	}
	if err := s.ScheduleRepo.Create(sch); err != nil {
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}

	links, err := s.LinkRepo.ListForScheduling(campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch campaign prospects: %w", err)
	}

	prospectIDs := make([]int, 0, len(links))
	ungenerated := []int{}
	for _, l := range links {
		prospectIDs = append(prospectIDs, l.ProspectID)
		if l.EmailStatus == model.EmailStatusNotGenerated {
			ungenerated = append(ungenerated, l.ProspectID)
		}
	}

	queued, err := s.QueueRepo.BulkEnqueue(campaignID, sch.ID, prospectIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue prospects: %w", err)
	}

	result := &CreateScheduleResult{
		ScheduleID:     sch.ID,
		QueuedCount:    queued,
		GeneratedCount: len(ungenerated),
	}

	if len(ungenerated) > 0 {
		result.GenerationTriggered = true
		s.triggerGeneration(campaignID, ungenerated)
	}

	return result, nil
}

func (s *ScheduleService) triggerGeneration(campaignID int, prospectIDs []int) {
	job := &model.GenerationJob{
		ID:          uuid.NewString(),
		CampaignID:  campaignID,
		ProspectIDs: prospectIDs,
	}
	if err := s.GenJobRepo.Create(job); err != nil {
		log.Println("⚠️ failed to record generation job:", err)
		return
	}

	msg := queue.GenerationMessage{
		JobID:       job.ID,
		CampaignID:  campaignID,
		ProspectIDs: prospectIDs,
	}
	if err := s.Publisher.PublishGenerationJob(msg); err != nil {
		log.Println("⚠️ failed to publish generation job:", err)
		if markErr := s.GenJobRepo.UpdateStatus(job.ID, model.GenerationStatusFailed); markErr != nil {
			log.Println("⚠️ failed to mark generation job failed:", markErr)
		}
	}
}

// Pause flips an active schedule to paused.
func (s *ScheduleService) Pause(scheduleID int) error {
	if _, err := s.ScheduleRepo.GetByID(scheduleID); err != nil {
		return err
	}
	return s.ScheduleRepo.UpdateStatus(scheduleID, model.ScheduleStatusPaused)
}

// Resume re-activates a paused schedule.
func (s *ScheduleService) Resume(scheduleID int) error {
	if _, err := s.ScheduleRepo.GetByID(scheduleID); err != nil {
		return err
	}
	return s.ScheduleRepo.UpdateStatus(scheduleID, model.ScheduleStatusActive)
}

// Cancel marks the schedule cancelled and drops its undelivered queue rows.
func (s *ScheduleService) Cancel(scheduleID int) (int, error) {
	if _, err := s.ScheduleRepo.GetByID(scheduleID); err != nil {
		return 0, err
	}
	if err := s.ScheduleRepo.UpdateStatus(scheduleID, model.ScheduleStatusCancelled); err != nil {
		return 0, err
	}
	deleted, err := s.QueueRepo.DeleteForSchedule(scheduleID)
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
