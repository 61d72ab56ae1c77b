package service

import (
	"errors"

	"campaign_call_backend/internal/model"
	"campaign_call_backend/internal/repository"
	"campaign_call_backend/internal/util"

	"gorm.io/gorm"
)

type CampaignService struct {
	CampaignRepo *repository.CampaignRepository
	VoterRepo    *repository.VoterRepository
	CallRepo     *repository.VerificationCallRepository
}

func NewCampaignService(
	campaignRepo *repository.CampaignRepository,
	voterRepo *repository.VoterRepository,
	callRepo *repository.VerificationCallRepository,
) *CampaignService {
	return &CampaignService{
		CampaignRepo: campaignRepo,
		VoterRepo:    voterRepo,
		CallRepo:     callRepo,
	}
}

func (s *CampaignService) CreateCampaign(campaign *model.Campaign) error {
	return s.CampaignRepo.Create(campaign)
}

func (s *CampaignService) GetCampaign(id uint) (*model.Campaign, error) {
	campaign, err := s.CampaignRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCampaignNotFound
		}
		return nil, err
	}
	return campaign, nil
}

func (s *CampaignService) ListActiveCampaigns() ([]model.Campaign, error) {
	return s.CampaignRepo.FindActive()
}

func (s *CampaignService) UpdateCampaign(campaign *model.Campaign) error {
	return s.CampaignRepo.Update(campaign)
}

// CampaignOverview combines voter progress and call outcomes for the
// supervisor dashboard.
type CampaignOverview struct {
	Campaign     *model.Campaign                  `json:"campaign"`
	VoterCounts  map[model.VoterStatus]int64      `json:"voterCounts"`
	CallOutcomes map[model.CallResult]int64       `json:"callOutcomes"`
}

func (s *CampaignService) GetOverview(campaignID uint) (*CampaignOverview, error) {
	campaign, err := s.GetCampaign(campaignID)
	if err != nil {
		return nil, err
	}

	voterCounts, err := s.VoterRepo.CountByStatus(campaignID)
	if err != nil {
		return nil, err
	}

	callOutcomes, err := s.CallRepo.CountByResult(campaignID)
	if err != nil {
		return nil, err
	}

	return &CampaignOverview{
		Campaign:     campaign,
		VoterCounts:  voterCounts,
		CallOutcomes: callOutcomes,
	}, nil
}
