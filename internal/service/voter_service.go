package service

import (
	"errors"

	"campaign_call_backend/internal/model"
	"campaign_call_backend/internal/repository"
	"campaign_call_backend/internal/util"

	"gorm.io/gorm"
)

type VoterService struct {
	VoterRepo    *repository.VoterRepository
	CampaignRepo *repository.CampaignRepository
}

func NewVoterService(voterRepo *repository.VoterRepository, campaignRepo *repository.CampaignRepository) *VoterService {
	return &VoterService{
		VoterRepo:    voterRepo,
		CampaignRepo: campaignRepo,
	}
}

// RegisterVoter creates a voter in pending_review. A document id may
// appear once per campaign; the unique index is the backstop for
// concurrent registrations.
func (s *VoterService) RegisterVoter(voter *model.Voter) error {
	if _, err := s.CampaignRepo.FindByID(voter.CampaignID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrCampaignNotFound
		}
		return err
	}

	if _, err := s.VoterRepo.FindByCampaignAndDocument(voter.CampaignID, voter.DocumentID); err == nil {
		return util.ErrDuplicateVoterDocument
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	voter.Status = model.VoterPendingReview
	return s.VoterRepo.Create(voter)
}

func (s *VoterService) GetVoter(id uint) (*model.Voter, error) {
	voter, err := s.VoterRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrVoterNotFound
		}
		return nil, err
	}
	return voter, nil
}

func (s *VoterService) ListVoters(campaignID uint, status model.VoterStatus, page, limit int) ([]model.Voter, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.VoterRepo.ListByCampaign(campaignID, status, page, limit)
}
