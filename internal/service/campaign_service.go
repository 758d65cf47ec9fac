// internal/service/campaign_service.go
package service

import (
	"log"
	"time"

	"github.com/superprospect/prospector-backend/internal/model"
	"github.com/superprospect/prospector-backend/internal/repository"
)

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	ProspectRepo repository.ProspectRepositoryInterface
}

type CampaignDetails struct {
	ID        int            `json:"id"`
	UserID    int            `json:"user_id"`
	Name      string         `json:"name"`
	Status    string         `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt *time.Time     `json:"updated_at"`
	Stats     map[string]int `json:"stats"`
}

func (s *CampaignService) CreateCampaign(userID int, name string) (*model.Campaign, error) {
	c := &model.Campaign{
		UserID: userID,
		Name:   name,
		Status: model.CampaignStatusDraft,
	}
	if err := s.CampaignRepo.Create(c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.ListCampaigns(offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

// ListCampaignProspects returns every prospect linked to the campaign.
func (s *CampaignService) ListCampaignProspects(campaignID int) ([]model.Prospect, error) {
	if _, err := s.CampaignRepo.GetByID(campaignID); err != nil {
		return nil, err
	}
	return s.ProspectRepo.ListByCampaign(campaignID)
}

// GetCampaignDetailsWithStats returns a campaign plus its queue counts.
func (s *CampaignService) GetCampaignDetailsWithStats(campaignID int) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		log.Println("Failed to fetch campaign:", err)
		return nil, err
	}

	counts, err := s.CampaignRepo.GetQueueStats(campaignID)
	if err != nil {
		log.Println("Failed to fetch queue stats:", err)
		return nil, err
	}

	stats := map[string]int{"total": 0}
	for status, count := range counts {
		stats[status] = count
		stats["total"] += count
	}

	return &CampaignDetails{
		ID:        campaign.ID,
		UserID:    campaign.UserID,
		Name:      campaign.Name,
		Status:    campaign.Status,
		CreatedAt: campaign.CreatedAt,
		UpdatedAt: campaign.UpdatedAt,
		Stats:     stats,
	}, nil
}
