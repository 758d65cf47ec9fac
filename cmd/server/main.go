// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/superprospect/prospector-backend/internal/config"
	"github.com/superprospect/prospector-backend/internal/controller"
	"github.com/superprospect/prospector-backend/internal/db"
	"github.com/superprospect/prospector-backend/internal/handler"
	"github.com/superprospect/prospector-backend/internal/lock"
	"github.com/superprospect/prospector-backend/internal/queue"
	"github.com/superprospect/prospector-backend/internal/repository"
	"github.com/superprospect/prospector-backend/internal/service"
	"github.com/superprospect/prospector-backend/internal/webhook"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// Init DB
	db.Init(cfg)

	locker, err := lock.NewRedisLocker(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to init redis locker: %v", err)
	}

	publisher, err := queue.NewAmqpPublisher(cfg.AmqpURL)
	if err != nil {
		log.Fatalf("failed to init generation publisher: %v", err)
	}
	defer publisher.Close()

	webhookClient := webhook.NewClient(
		cfg.SendingWebhookURL,
		cfg.GenerationWebhookURL,
		time.Duration(cfg.SendTimeoutSeconds)*time.Second,
	)

	campaignRepo := &repository.CampaignRepository{DB: db.DB}
	prospectRepo := &repository.ProspectRepository{DB: db.DB}
	linkRepo := &repository.LinkRepository{DB: db.DB}
	scheduleRepo := &repository.ScheduleRepository{DB: db.DB}
	queueRepo := &repository.QueueRepository{DB: db.DB}
	smtpRepo := &repository.SmtpRepository{DB: db.DB}
	quotaRepo := &repository.QuotaRepository{DB: db.DB}
	genJobRepo := &repository.GenerationJobRepository{DB: db.DB}

	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
		ProspectRepo: prospectRepo,
	}
	scheduleService := &service.ScheduleService{
		ScheduleRepo: scheduleRepo,
		QueueRepo:    queueRepo,
		LinkRepo:     linkRepo,
		CampaignRepo: campaignRepo,
		GenJobRepo:   genJobRepo,
		Publisher:    publisher,
	}
	processor := &service.ProcessorService{
		ScheduleRepo: scheduleRepo,
		QueueRepo:    queueRepo,
		CampaignRepo: campaignRepo,
		ProspectRepo: prospectRepo,
		LinkRepo:     linkRepo,
		SmtpRepo:     smtpRepo,
		QuotaRepo:    quotaRepo,
		Sender:       webhookClient,
		Locker:       locker,
	}

	campaignController := controller.NewCampaignController(campaignService)
	scheduleController := controller.NewScheduleController(scheduleService)
	accountController := controller.NewAccountController(smtpRepo, quotaRepo)
	automationHandler := handler.NewAutomationHandler(processor, cfg.CronSecret, cfg.IsProduction())

	// In-process trigger shares the handler's code path with the external
	// cron endpoint.
	c := cron.New()
	if _, err := c.AddFunc("* * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		results, err := processor.ProcessQueue(ctx, time.Now())
		if err != nil {
			log.Println("⚠️ queue processing failed:", err)
			return
		}
		log.Printf("📩 queue pass finished: %d schedules inspected", len(results))
	}); err != nil {
		log.Fatalf("failed to register cron job: %v", err)
	}
	c.Start()
	defer c.Stop()

	r := chi.NewRouter()

	// Campaign routes
	r.Post("/api/campaigns", campaignController.CreateCampaign)
	r.Get("/api/campaigns", campaignController.ListCampaigns)
	r.Get("/api/campaigns/{id}", campaignController.GetCampaignDetails)
	r.Get("/api/campaigns/{id}/prospects", campaignController.ListCampaignProspects)
	r.Post("/api/campaigns/{id}/schedule", scheduleController.CreateSchedule)

	// Schedule lifecycle
	r.Post("/api/schedules/{id}/pause", scheduleController.PauseSchedule)
	r.Post("/api/schedules/{id}/resume", scheduleController.ResumeSchedule)
	r.Post("/api/schedules/{id}/cancel", scheduleController.CancelSchedule)

	// Account resources
	r.Post("/api/smtp-configs", accountController.CreateSmtpConfig)
	r.Get("/api/users/{userID}/smtp-configs", accountController.ListSmtpConfigs)
	r.Get("/api/quotas/{userID}", accountController.GetQuota)

	// Machine-invoked automation
	r.Get("/api/automation/process-queue", automationHandler.ProcessQueue)

	log.Println("🚀 Server running on :" + cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
