package repository

import (
	"time"

	"campaign_call_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VerificationCallRepository struct {
	DB *gorm.DB
}

func NewVerificationCallRepository(db *gorm.DB) *VerificationCallRepository {
	return &VerificationCallRepository{DB: db}
}

func (r *VerificationCallRepository) Create(tx *gorm.DB, call *model.VerificationCall) error {
	return tx.Create(call).Error
}

func (r *VerificationCallRepository) FindByID(id uint) (*model.VerificationCall, error) {
	var call model.VerificationCall
	err := r.DB.First(&call, id).Error
	return &call, err
}

// MaxAttemptNumber reads the highest attempt number logged for a voter,
// locking the rows so two reviewers racing to log a call for the same
// voter serialize on the read. The unique (voter_id, attempt_number)
// index is the backstop if both still compute the same number.
func (r *VerificationCallRepository) MaxAttemptNumber(tx *gorm.DB, voterID uint) (int, error) {
	var max int
	err := tx.Model(&model.VerificationCall{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("voter_id = ?", voterID).
		Select("COALESCE(MAX(attempt_number), 0)").
		Scan(&max).Error
	return max, err
}

// HistoryByVoter returns every attempt in order, each with the responses
// collected during that attempt. This is the historized per-attempt view.
func (r *VerificationCallRepository) HistoryByVoter(voterID uint) ([]model.VerificationCall, error) {
	var calls []model.VerificationCall
	err := r.DB.
		Preload("Responses").
		Where("voter_id = ?", voterID).
		Order("attempt_number ASC").
		Find(&calls).Error
	return calls, err
}

func (r *VerificationCallRepository) FindByAssignment(assignmentID uint) ([]model.VerificationCall, error) {
	var calls []model.VerificationCall
	err := r.DB.
		Where("assignment_id = ?", assignmentID).
		Order("attempt_number ASC").
		Find(&calls).Error
	return calls, err
}

func (r *VerificationCallRepository) ScheduleNext(id uint, nextAttemptAt time.Time) error {
	return r.DB.Model(&model.VerificationCall{}).
		Where("id = ?", id).
		Update("next_attempt_at", nextAttemptAt).
		Error
}

func (r *VerificationCallRepository) MarkSurveyCompleted(tx *gorm.DB, id uint) error {
	return tx.Model(&model.VerificationCall{}).
		Where("id = ?", id).
		Update("survey_completed", true).
		Error
}

// FollowUpsDue lists calls whose scheduled retry time has arrived for a
// reviewer, most overdue first.
func (r *VerificationCallRepository) FollowUpsDue(reviewerID uint, before time.Time) ([]model.VerificationCall, error) {
	var calls []model.VerificationCall
	err := r.DB.
		Where("reviewer_id = ? AND next_attempt_at IS NOT NULL AND next_attempt_at <= ?", reviewerID, before).
		Where("result IN ?", []model.CallResult{model.CallNoAnswer, model.CallBusy, model.CallCallbackRequested}).
		Order("next_attempt_at ASC").
		Find(&calls).Error
	return calls, err
}

// CountByResult aggregates call outcomes for a campaign through the voter
// relation; used by campaign reporting.
func (r *VerificationCallRepository) CountByResult(campaignID uint) (map[model.CallResult]int64, error) {
	type row struct {
		Result model.CallResult
		Count  int64
	}
	var rows []row
	err := r.DB.Model(&model.VerificationCall{}).
		Select("verification_calls.result, COUNT(*) AS count").
		Joins("JOIN voters ON voters.id = verification_calls.voter_id").
		Where("voters.campaign_id = ?", campaignID).
		Group("verification_calls.result").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.CallResult]int64, len(rows))
	for _, r := range rows {
		counts[r.Result] = r.Count
	}
	return counts, nil
}
