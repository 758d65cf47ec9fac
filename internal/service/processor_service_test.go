package service_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/superprospect/prospector-backend/internal/errors"
	"github.com/superprospect/prospector-backend/internal/model"
	"github.com/superprospect/prospector-backend/internal/service"
	"github.com/superprospect/prospector-backend/internal/webhook"
)

// --- Mock repositories ---

type mockScheduleRepo struct {
	schedules []*model.Schedule
	listErr   error
	statuses  map[int]string
}

func (m *mockScheduleRepo) Create(s *model.Schedule) error { s.ID = 99; return nil }
func (m *mockScheduleRepo) GetByID(id int) (*model.Schedule, error) {
	for _, s := range m.schedules {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, appErrors.NewScheduleNotFound(id)
}
func (m *mockScheduleRepo) ListActive() ([]*model.Schedule, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	active := []*model.Schedule{}
	for _, s := range m.schedules {
		if s.Status == model.ScheduleStatusActive {
			active = append(active, s)
		}
	}
	return active, nil
}
func (m *mockScheduleRepo) UpdateStatus(id int, status string) error {
	if m.statuses == nil {
		m.statuses = map[int]string{}
	}
	m.statuses[id] = status
	return nil
}

type mockQueueRepo struct {
	items     []model.QueueItem
	sentToday map[int]int
}

func (m *mockQueueRepo) BulkEnqueue(campaignID, scheduleID int, prospectIDs []int) (int, error) {
	inserted := 0
	for _, pid := range prospectIDs {
		exists := false
		for _, it := range m.items {
			if it.CampaignID == campaignID && it.ProspectID == pid {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		m.items = append(m.items, model.QueueItem{
			ID:         len(m.items) + 1,
			CampaignID: campaignID,
			ProspectID: pid,
			ScheduleID: scheduleID,
			Status:     model.QueueStatusPending,
			CreatedAt:  time.Now(),
		})
		inserted++
	}
	return inserted, nil
}

func (m *mockQueueRepo) SelectBatch(scheduleID, limit int) ([]model.QueueItem, error) {
	eligible := []model.QueueItem{}
	for _, it := range m.items {
		if it.ScheduleID == scheduleID && (it.Status == model.QueueStatusPending || it.Status == model.QueueStatusRetrying) {
			eligible = append(eligible, it)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].Priority != eligible[j].Priority {
			return eligible[i].Priority > eligible[j].Priority
		}
		return eligible[i].CreatedAt.Before(eligible[j].CreatedAt)
	})
	if len(eligible) > limit {
		eligible = eligible[:limit]
	}
	return eligible, nil
}

func (m *mockQueueRepo) CountSentSince(campaignID int, since time.Time) (int, error) {
	return m.sentToday[campaignID], nil
}

func (m *mockQueueRepo) MarkSent(itemID, campaignID, prospectID int, sentAt time.Time) error {
	for i := range m.items {
		if m.items[i].ID == itemID {
			m.items[i].Status = model.QueueStatusSent
			m.items[i].SentAt = &sentAt
			m.items[i].Attempts++
		}
	}
	if m.sentToday == nil {
		m.sentToday = map[int]int{}
	}
	m.sentToday[campaignID]++
	return nil
}

func (m *mockQueueRepo) MarkFailed(itemID int, reason string) error {
	for i := range m.items {
		if m.items[i].ID == itemID {
			m.items[i].Status = model.QueueStatusFailed
			m.items[i].LastError = reason
			m.items[i].Attempts++
		}
	}
	return nil
}

func (m *mockQueueRepo) MarkRetrying(itemID int, reason string) error {
	for i := range m.items {
		if m.items[i].ID == itemID {
			m.items[i].Status = model.QueueStatusRetrying
			m.items[i].LastError = reason
			m.items[i].Attempts++
		}
	}
	return nil
}

func (m *mockQueueRepo) DeleteForSchedule(scheduleID int) (int, error) {
	kept := m.items[:0]
	deleted := 0
	for _, it := range m.items {
		if it.ScheduleID == scheduleID && (it.Status == model.QueueStatusPending || it.Status == model.QueueStatusRetrying) {
			deleted++
			continue
		}
		kept = append(kept, it)
	}
	m.items = kept
	return deleted, nil
}

func (m *mockQueueRepo) item(id int) *model.QueueItem {
	for i := range m.items {
		if m.items[i].ID == id {
			return &m.items[i]
		}
	}
	return nil
}

type mockCampaignRepo struct{}

func (m *mockCampaignRepo) Create(c *model.Campaign) error { c.ID = 1; return nil }
func (m *mockCampaignRepo) GetByID(id int) (*model.Campaign, error) {
	return &model.Campaign{ID: id, UserID: 7, Name: "Paris restaurants", Status: model.CampaignStatusActive}, nil
}
func (m *mockCampaignRepo) ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error) {
	return []*model.Campaign{}, 0, nil
}
func (m *mockCampaignRepo) UpdateStatus(id int, status string) error { return nil }
func (m *mockCampaignRepo) GetQueueStats(id int) (map[string]int, error) {
	return map[string]int{}, nil
}

type mockProspectRepo struct{}

func (m *mockProspectRepo) GetByID(id int) (*model.Prospect, error) {
	return &model.Prospect{ID: id, UserID: 7, Name: "Alice Martin", Email: "alice@example.com"}, nil
}
func (m *mockProspectRepo) ListByCampaign(campaignID int) ([]model.Prospect, error) {
	return nil, nil
}

type mockLinkRepo struct {
	generated map[[2]int]*model.CampaignProspect
	links     []model.CampaignProspect
}

func (m *mockLinkRepo) ListForScheduling(campaignID int) ([]model.CampaignProspect, error) {
	eligible := []model.CampaignProspect{}
	for _, l := range m.links {
		if l.CampaignID == campaignID && l.EmailStatus != model.EmailStatusSent && l.EmailStatus != model.EmailStatusBounced {
			eligible = append(eligible, l)
		}
	}
	return eligible, nil
}
func (m *mockLinkRepo) GetGeneratedEmail(campaignID, prospectID int) (*model.CampaignProspect, error) {
	return m.generated[[2]int{campaignID, prospectID}], nil
}

type mockSmtpRepo struct {
	cfg *model.SmtpConfiguration
}

func (m *mockSmtpRepo) Create(c *model.SmtpConfiguration) error { return nil }
func (m *mockSmtpRepo) LatestActive(userID int) (*model.SmtpConfiguration, error) {
	return m.cfg, nil
}
func (m *mockSmtpRepo) ListByUser(userID int) ([]model.SmtpConfiguration, error) {
	return nil, nil
}

type mockQuotaRepo struct {
	incremented map[string]int
}

func (m *mockQuotaRepo) Get(userID int) (*model.Quota, error) { return nil, nil }
func (m *mockQuotaRepo) Increment(userID int, category string, n int) error {
	if m.incremented == nil {
		m.incremented = map[string]int{}
	}
	m.incremented[category] += n
	return nil
}

type mockSender struct {
	mu       sync.Mutex
	payloads []webhook.SendPayload
	respond  func(p webhook.SendPayload) error
}

func (m *mockSender) SendEmail(ctx context.Context, p webhook.SendPayload) error {
	m.mu.Lock()
	m.payloads = append(m.payloads, p)
	m.mu.Unlock()
	if m.respond != nil {
		return m.respond(p)
	}
	return nil
}

type mockLocker struct {
	held     map[string]bool
	acquired []string
}

func (m *mockLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	if m.held[key] {
		return nil, false, nil
	}
	m.acquired = append(m.acquired, key)
	return func() {}, true, nil
}

// --- Helpers ---

// tuesday 10:00 local; schedules below use day 2 and a 09:00-17:00 window.
var tuesday = time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)

func activeSchedule(id, campaignID, dailyLimit int) *model.Schedule {
	return &model.Schedule{
		ID:              id,
		CampaignID:      campaignID,
		DailyLimit:      dailyLimit,
		TimeWindowStart: "09:00:00",
		TimeWindowEnd:   "17:00:00",
		DaysOfWeek:      []int{2},
		Status:          model.ScheduleStatusActive,
	}
}

func generatedLink(campaignID, prospectID int) *model.CampaignProspect {
	return &model.CampaignProspect{
		CampaignID:            campaignID,
		ProspectID:            prospectID,
		EmailStatus:           model.EmailStatusGenerated,
		GeneratedEmailSubject: "Quick question",
		GeneratedEmailContent: "Hi Alice, ...",
	}
}

func newProcessor(scheduleRepo *mockScheduleRepo, queueRepo *mockQueueRepo, linkRepo *mockLinkRepo, smtpRepo *mockSmtpRepo, sender *mockSender, locker *mockLocker) *service.ProcessorService {
	p := &service.ProcessorService{
		ScheduleRepo: scheduleRepo,
		QueueRepo:    queueRepo,
		CampaignRepo: &mockCampaignRepo{},
		ProspectRepo: &mockProspectRepo{},
		LinkRepo:     linkRepo,
		SmtpRepo:     smtpRepo,
		QuotaRepo:    &mockQuotaRepo{},
		Sender:       sender,
	}
	if locker != nil {
		p.Locker = locker
	}
	return p
}

func defaultSmtp() *mockSmtpRepo {
	return &mockSmtpRepo{cfg: &model.SmtpConfiguration{
		ID: 1, UserID: 7, IsActive: true, Host: "smtp.example.com", Port: 587,
		Username: "u", Password: "p", FromEmail: "from@example.com", FromName: "Team",
	}}
}

// --- Tests ---

func TestProcessQueueSkipsWrongDay(t *testing.T) {
	sch := activeSchedule(1, 10, 5)
	sch.DaysOfWeek = []int{6, 7} // weekend only

	queueRepo := &mockQueueRepo{items: []model.QueueItem{
		{ID: 1, CampaignID: 10, ScheduleID: 1, ProspectID: 1, Status: model.QueueStatusPending, CreatedAt: tuesday},
	}}
	sender := &mockSender{}
	p := newProcessor(&mockScheduleRepo{schedules: []*model.Schedule{sch}}, queueRepo, &mockLinkRepo{}, defaultSmtp(), sender, nil)

	results, err := p.ProcessQueue(context.Background(), tuesday)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, service.SkippedWrongDay, results[0].Status)
	assert.Empty(t, sender.payloads)
	assert.Equal(t, model.QueueStatusPending, queueRepo.item(1).Status)
}

func TestProcessQueueSkipsOutOfWindow(t *testing.T) {
	sch := activeSchedule(1, 10, 5)
	sch.TimeWindowStart = "18:00:00"
	sch.TimeWindowEnd = "20:00:00"

	p := newProcessor(&mockScheduleRepo{schedules: []*model.Schedule{sch}}, &mockQueueRepo{}, &mockLinkRepo{}, defaultSmtp(), &mockSender{}, nil)

	results, err := p.ProcessQueue(context.Background(), tuesday)
	require.NoError(t, err)
	assert.Equal(t, service.SkippedOutOfWindow, results[0].Status)
}

func TestProcessQueueWindowBoundsInclusive(t *testing.T) {
	sch := activeSchedule(1, 10, 5)
	sch.TimeWindowStart = "10:00:00"
	sch.TimeWindowEnd = "10:00:00"

	linkRepo := &mockLinkRepo{generated: map[[2]int]*model.CampaignProspect{
		{10, 1}: generatedLink(10, 1),
	}}
	queueRepo := &mockQueueRepo{items: []model.QueueItem{
		{ID: 1, CampaignID: 10, ScheduleID: 1, ProspectID: 1, Status: model.QueueStatusPending, CreatedAt: tuesday},
	}}
	sender := &mockSender{}
	p := newProcessor(&mockScheduleRepo{schedules: []*model.Schedule{sch}}, queueRepo, linkRepo, defaultSmtp(), sender, nil)

	results, err := p.ProcessQueue(context.Background(), tuesday)
	require.NoError(t, err)
	require.NotNil(t, results[0].Processed)
	assert.Equal(t, 1, *results[0].Processed)
	assert.Len(t, sender.payloads, 1)
}

func TestProcessQueueSkipsQuotaReached(t *testing.T) {
	sch := activeSchedule(1, 10, 2)

	queueRepo := &mockQueueRepo{
		sentToday: map[int]int{10: 2},
		items: []model.QueueItem{
			{ID: 1, CampaignID: 10, ScheduleID: 1, ProspectID: 1, Status: model.QueueStatusPending, CreatedAt: tuesday},
		},
	}
	sender := &mockSender{}
	p := newProcessor(&mockScheduleRepo{schedules: []*model.Schedule{sch}}, queueRepo, &mockLinkRepo{}, defaultSmtp(), sender, nil)

	results, err := p.ProcessQueue(context.Background(), tuesday)
	require.NoError(t, err)
	assert.Equal(t, service.SkippedQuotaReached, results[0].Status)
	assert.Empty(t, sender.payloads)
}

func TestProcessQueueSelectionOrderAndLimit(t *testing.T) {
	// daily_limit 2, three items with priorities [0,0,1] and t1<t2<t3:
	// the priority-1 item goes first, then the earliest priority-0 item.
	sch := activeSchedule(1, 10, 2)

	t1 := tuesday.Add(-3 * time.Hour)
	t2 := tuesday.Add(-2 * time.Hour)
	t3 := tuesday.Add(-1 * time.Hour)
	queueRepo := &mockQueueRepo{items: []model.QueueItem{
		{ID: 1, CampaignID: 10, ScheduleID: 1, ProspectID: 1, Priority: 0, Status: model.QueueStatusPending, CreatedAt: t1},
		{ID: 2, CampaignID: 10, ScheduleID: 1, ProspectID: 2, Priority: 0, Status: model.QueueStatusPending, CreatedAt: t2},
		{ID: 3, CampaignID: 10, ScheduleID: 1, ProspectID: 3, Priority: 1, Status: model.QueueStatusPending, CreatedAt: t3},
	}}
	linkRepo := &mockLinkRepo{generated: map[[2]int]*model.CampaignProspect{
		{10, 1}: generatedLink(10, 1),
		{10, 2}: generatedLink(10, 2),
		{10, 3}: generatedLink(10, 3),
	}}
	sender := &mockSender{}
	p := newProcessor(&mockScheduleRepo{schedules: []*model.Schedule{sch}}, queueRepo, linkRepo, defaultSmtp(), sender, nil)

	results, err := p.ProcessQueue(context.Background(), tuesday)
	require.NoError(t, err)
	require.NotNil(t, results[0].Processed)
	assert.Equal(t, 2, *results[0].Processed)

	require.Len(t, sender.payloads, 2)
	assert.Equal(t, 3, sender.payloads[0].ProspectID)
	assert.Equal(t, 1, sender.payloads[1].ProspectID)

	assert.Equal(t, model.QueueStatusSent, queueRepo.item(3).Status)
	assert.Equal(t, model.QueueStatusSent, queueRepo.item(1).Status)
	assert.Equal(t, model.QueueStatusPending, queueRepo.item(2).Status)
}

func TestProcessQueueIdempotentSecondRun(t *testing.T) {
	sch := activeSchedule(1, 10, 5)

	queueRepo := &mockQueueRepo{items: []model.QueueItem{
		{ID: 1, CampaignID: 10, ScheduleID: 1, ProspectID: 1, Status: model.QueueStatusPending, CreatedAt: tuesday},
	}}
	linkRepo := &mockLinkRepo{generated: map[[2]int]*model.CampaignProspect{
		{10, 1}: generatedLink(10, 1),
	}}
	sender := &mockSender{}
	p := newProcessor(&mockScheduleRepo{schedules: []*model.Schedule{sch}}, queueRepo, linkRepo, defaultSmtp(), sender, nil)

	results, err := p.ProcessQueue(context.Background(), tuesday)
	require.NoError(t, err)
	assert.Equal(t, 1, *results[0].Processed)

	results, err = p.ProcessQueue(context.Background(), tuesday)
	require.NoError(t, err)
	assert.Equal(t, 0, *results[0].Processed)
	assert.Len(t, sender.payloads, 1)
}

func TestProcessQueueMissingGeneratedEmail(t *testing.T) {
	sch := activeSchedule(1, 10, 5)

	queueRepo := &mockQueueRepo{items: []model.QueueItem{
		{ID: 1, CampaignID: 10, ScheduleID: 1, ProspectID: 1, Status: model.QueueStatusPending, CreatedAt: tuesday},
	}}
	sender := &mockSender{}
	p := newProcessor(&mockScheduleRepo{schedules: []*model.Schedule{sch}}, queueRepo, &mockLinkRepo{}, defaultSmtp(), sender, nil)

	_, err := p.ProcessQueue(context.Background(), tuesday)
	require.NoError(t, err)

	item := queueRepo.item(1)
	assert.Equal(t, model.QueueStatusFailed, item.Status)
	assert.Contains(t, item.LastError, "No generated email found")
	assert.Empty(t, sender.payloads, "no webhook call should be attempted")
}

func TestProcessQueueMissingSmtpConfig(t *testing.T) {
	sch := activeSchedule(1, 10, 5)

	queueRepo := &mockQueueRepo{items: []model.QueueItem{
		{ID: 1, CampaignID: 10, ScheduleID: 1, ProspectID: 1, Status: model.QueueStatusPending, CreatedAt: tuesday},
	}}
	linkRepo := &mockLinkRepo{generated: map[[2]int]*model.CampaignProspect{
		{10, 1}: generatedLink(10, 1),
	}}
	sender := &mockSender{}
	p := newProcessor(&mockScheduleRepo{schedules: []*model.Schedule{sch}}, queueRepo, linkRepo, &mockSmtpRepo{}, sender, nil)

	_, err := p.ProcessQueue(context.Background(), tuesday)
	require.NoError(t, err)

	item := queueRepo.item(1)
	assert.Equal(t, model.QueueStatusFailed, item.Status)
	assert.Contains(t, item.LastError, "No active SMTP configuration found for user")
	assert.Empty(t, sender.payloads)
}

func TestProcessQueueWebhookFailureIsolated(t *testing.T) {
	// A 5xx on one item leaves it retrying and does not abort the batch.
	sch := activeSchedule(1, 10, 5)

	queueRepo := &mockQueueRepo{items: []model.QueueItem{
		{ID: 1, CampaignID: 10, ScheduleID: 1, ProspectID: 1, Status: model.QueueStatusPending, CreatedAt: tuesday.Add(-2 * time.Hour)},
		{ID: 2, CampaignID: 10, ScheduleID: 1, ProspectID: 2, Status: model.QueueStatusPending, CreatedAt: tuesday.Add(-1 * time.Hour)},
	}}
	linkRepo := &mockLinkRepo{generated: map[[2]int]*model.CampaignProspect{
		{10, 1}: generatedLink(10, 1),
		{10, 2}: generatedLink(10, 2),
	}}
	sender := &mockSender{respond: func(p webhook.SendPayload) error {
		if p.ProspectID == 1 {
			return appErrors.NewRetryableDispatch("Webhook error: status 500", nil)
		}
		return nil
	}}
	p := newProcessor(&mockScheduleRepo{schedules: []*model.Schedule{sch}}, queueRepo, linkRepo, defaultSmtp(), sender, nil)

	results, err := p.ProcessQueue(context.Background(), tuesday)
	require.NoError(t, err)
	assert.Equal(t, 2, *results[0].Processed)

	first := queueRepo.item(1)
	assert.Equal(t, model.QueueStatusRetrying, first.Status)
	assert.Contains(t, first.LastError, "Webhook error")
	assert.Equal(t, 1, first.Attempts)

	assert.Equal(t, model.QueueStatusSent, queueRepo.item(2).Status)
}

func TestProcessQueueRetryExhaustionFails(t *testing.T) {
	sch := activeSchedule(1, 10, 5)

	queueRepo := &mockQueueRepo{items: []model.QueueItem{
		{ID: 1, CampaignID: 10, ScheduleID: 1, ProspectID: 1, Status: model.QueueStatusRetrying, Attempts: service.MaxSendAttempts - 1, CreatedAt: tuesday},
	}}
	linkRepo := &mockLinkRepo{generated: map[[2]int]*model.CampaignProspect{
		{10, 1}: generatedLink(10, 1),
	}}
	sender := &mockSender{respond: func(p webhook.SendPayload) error {
		return appErrors.NewRetryableDispatch("Webhook error: status 503", nil)
	}}
	p := newProcessor(&mockScheduleRepo{schedules: []*model.Schedule{sch}}, queueRepo, linkRepo, defaultSmtp(), sender, nil)

	_, err := p.ProcessQueue(context.Background(), tuesday)
	require.NoError(t, err)

	item := queueRepo.item(1)
	assert.Equal(t, model.QueueStatusFailed, item.Status)
	assert.Equal(t, service.MaxSendAttempts, item.Attempts)
}

func TestProcessQueueLeaseHeld(t *testing.T) {
	sch := activeSchedule(1, 10, 5)

	locker := &mockLocker{held: map[string]bool{"lease:schedule:1": true}}
	sender := &mockSender{}
	p := newProcessor(&mockScheduleRepo{schedules: []*model.Schedule{sch}}, &mockQueueRepo{}, &mockLinkRepo{}, defaultSmtp(), sender, locker)

	results, err := p.ProcessQueue(context.Background(), tuesday)
	require.NoError(t, err)
	assert.Equal(t, service.SkippedLocked, results[0].Status)
	assert.Empty(t, sender.payloads)
}

func TestProcessQueueTopLevelFetchError(t *testing.T) {
	p := newProcessor(&mockScheduleRepo{listErr: errors.New("connection reset")}, &mockQueueRepo{}, &mockLinkRepo{}, defaultSmtp(), &mockSender{}, nil)

	_, err := p.ProcessQueue(context.Background(), tuesday)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch active schedules")
}

func TestProcessQueueSendPayload(t *testing.T) {
	sch := activeSchedule(1, 10, 5)

	queueRepo := &mockQueueRepo{items: []model.QueueItem{
		{ID: 1, CampaignID: 10, ScheduleID: 1, ProspectID: 1, Status: model.QueueStatusPending, CreatedAt: tuesday},
	}}
	linkRepo := &mockLinkRepo{generated: map[[2]int]*model.CampaignProspect{
		{10, 1}: generatedLink(10, 1),
	}}
	sender := &mockSender{}
	p := newProcessor(&mockScheduleRepo{schedules: []*model.Schedule{sch}}, queueRepo, linkRepo, defaultSmtp(), sender, nil)

	_, err := p.ProcessQueue(context.Background(), tuesday)
	require.NoError(t, err)

	require.Len(t, sender.payloads, 1)
	payload := sender.payloads[0]
	assert.Equal(t, "alice@example.com", payload.To)
	assert.Equal(t, "Quick question", payload.Subject)
	assert.Equal(t, "smtp.example.com", payload.SmtpConfig.Host)
	assert.Equal(t, "Paris restaurants", payload.Metadata["campaign_name"])
	assert.NotEmpty(t, payload.IdempotencyKey)

	// Same campaign/prospect/day yields the same key on a later pass.
	queueRepo.items[0].Status = model.QueueStatusPending
	_, err = p.ProcessQueue(context.Background(), tuesday.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, sender.payloads, 2)
	assert.Equal(t, payload.IdempotencyKey, sender.payloads[1].IdempotencyKey)
}
