package service

import (
	"encoding/json"
	"errors"

	"campaign_call_backend/internal/model"
	"campaign_call_backend/internal/repository"
	"campaign_call_backend/internal/util"

	"gorm.io/gorm"
)

type SurveyService struct {
	SurveyRepo   *repository.SurveyRepository
	CampaignRepo *repository.CampaignRepository
}

func NewSurveyService(surveyRepo *repository.SurveyRepository, campaignRepo *repository.CampaignRepository) *SurveyService {
	return &SurveyService{
		SurveyRepo:   surveyRepo,
		CampaignRepo: campaignRepo,
	}
}

type SurveyQuestionRequest struct {
	Text     string   `json:"text" binding:"required"`
	Type     string   `json:"type" binding:"required,oneof=text single_choice multi_choice yes_no"`
	Options  []string `json:"options,omitempty"`
	Required bool     `json:"required"`
}

func (s *SurveyService) CreateSurvey(campaignID uint, title, description string, questions []SurveyQuestionRequest) (*model.Survey, error) {
	if _, err := s.CampaignRepo.FindByID(campaignID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCampaignNotFound
		}
		return nil, err
	}

	survey := &model.Survey{
		CampaignID:  campaignID,
		Title:       title,
		Description: description,
		Active:      true,
	}
	for i, q := range questions {
		options := ""
		if len(q.Options) > 0 {
			b, err := json.Marshal(q.Options)
			if err != nil {
				return nil, err
			}
			options = string(b)
		}
		survey.Questions = append(survey.Questions, model.SurveyQuestion{
			Text:     q.Text,
			Type:     model.QuestionType(q.Type),
			Options:  options,
			Required: q.Required,
			Order:    i + 1,
		})
	}

	if err := s.SurveyRepo.Create(survey); err != nil {
		return nil, err
	}
	return survey, nil
}

func (s *SurveyService) GetSurvey(id uint) (*model.Survey, error) {
	survey, err := s.SurveyRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSurveyNotFound
		}
		return nil, err
	}
	return survey, nil
}

// GetActiveSurvey returns the campaign's current verification script, or
// ErrSurveyNotFound when none is configured.
func (s *SurveyService) GetActiveSurvey(campaignID uint) (*model.Survey, error) {
	survey, err := s.SurveyRepo.FindActiveByCampaign(campaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSurveyNotFound
		}
		return nil, err
	}
	return survey, nil
}
