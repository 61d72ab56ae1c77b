package repository

import (
	"campaign_call_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SurveyResponseRepository struct {
	DB *gorm.DB
}

func NewSurveyResponseRepository(db *gorm.DB) *SurveyResponseRepository {
	return &SurveyResponseRepository{DB: db}
}

// Upsert inserts the response or, when a row already exists for the same
// (call_id, question_id), overwrites value, answerer and timestamp in
// place. The conflict target is the composite unique index, so two
// near-simultaneous submissions for the same attempt and question collapse
// into one row instead of racing into duplicates.
func (r *SurveyResponseRepository) Upsert(tx *gorm.DB, response *model.SurveyResponse) error {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "call_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"value", "answered_by", "answered_at", "updated_at",
		}),
	}).Create(response).Error
}

func (r *SurveyResponseRepository) FindByCall(callID uint) ([]model.SurveyResponse, error) {
	var responses []model.SurveyResponse
	err := r.DB.
		Where("call_id = ?", callID).
		Order("question_id ASC").
		Find(&responses).Error
	return responses, err
}

func (r *SurveyResponseRepository) FindByCallAndQuestion(tx *gorm.DB, callID, questionID uint) (*model.SurveyResponse, error) {
	var response model.SurveyResponse
	err := tx.
		Where("call_id = ? AND question_id = ?", callID, questionID).
		First(&response).Error
	return &response, err
}

// HistoryByVoterAndQuestion returns every answer a voter ever gave to one
// question, ordered by the attempt that produced it. Attempt-less
// historical rows sort first.
func (r *SurveyResponseRepository) HistoryByVoterAndQuestion(voterID, questionID uint) ([]model.SurveyResponse, error) {
	var responses []model.SurveyResponse
	err := r.DB.
		Joins("LEFT JOIN verification_calls vc ON vc.id = survey_responses.call_id").
		Where("survey_responses.voter_id = ? AND survey_responses.question_id = ?", voterID, questionID).
		Order("COALESCE(vc.attempt_number, 0) ASC, survey_responses.id ASC").
		Find(&responses).Error
	return responses, err
}

// CountAnsweredForCall counts distinct questions answered during one call.
func (r *SurveyResponseRepository) CountAnsweredForCall(tx *gorm.DB, callID uint) (int64, error) {
	var count int64
	err := tx.Model(&model.SurveyResponse{}).
		Where("call_id = ?", callID).
		Distinct("question_id").
		Count(&count).Error
	return count, err
}
