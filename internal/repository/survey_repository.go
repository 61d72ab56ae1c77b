package repository

import (
	"campaign_call_backend/internal/model"

	"gorm.io/gorm"
)

type SurveyRepository struct {
	DB *gorm.DB
}

func NewSurveyRepository(db *gorm.DB) *SurveyRepository {
	return &SurveyRepository{DB: db}
}

// Create persists the survey together with its questions.
func (r *SurveyRepository) Create(survey *model.Survey) error {
	return r.DB.Create(survey).Error
}

func (r *SurveyRepository) FindByID(id uint) (*model.Survey, error) {
	var survey model.Survey
	err := r.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("survey_questions.order ASC, survey_questions.id ASC")
	}).First(&survey, id).Error
	return &survey, err
}

func (r *SurveyRepository) FindActiveByCampaign(campaignID uint) (*model.Survey, error) {
	var survey model.Survey
	err := r.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("survey_questions.order ASC, survey_questions.id ASC")
	}).Where("campaign_id = ? AND active = ?", campaignID, true).First(&survey).Error
	return &survey, err
}

func (r *SurveyRepository) FindQuestion(id uint) (*model.SurveyQuestion, error) {
	var question model.SurveyQuestion
	err := r.DB.First(&question, id).Error
	return &question, err
}

func (r *SurveyRepository) CountQuestions(surveyID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.SurveyQuestion{}).
		Where("survey_id = ?", surveyID).
		Count(&count).Error
	return count, err
}
