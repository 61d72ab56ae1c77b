package repository

import (
	"campaign_call_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VoterRepository struct {
	DB *gorm.DB
}

func NewVoterRepository(db *gorm.DB) *VoterRepository {
	return &VoterRepository{DB: db}
}

func (r *VoterRepository) Create(voter *model.Voter) error {
	return r.DB.Create(voter).Error
}

func (r *VoterRepository) FindByID(id uint) (*model.Voter, error) {
	var voter model.Voter
	err := r.DB.First(&voter, id).Error
	return &voter, err
}

func (r *VoterRepository) FindByIDs(ids []uint) ([]model.Voter, error) {
	var voters []model.Voter
	err := r.DB.Where("id IN ?", ids).Find(&voters).Error
	return voters, err
}

func (r *VoterRepository) FindByCampaignAndDocument(campaignID uint, documentID string) (*model.Voter, error) {
	var voter model.Voter
	err := r.DB.Where("campaign_id = ? AND document_id = ?", campaignID, documentID).First(&voter).Error
	return &voter, err
}

func (r *VoterRepository) ListByCampaign(campaignID uint, status model.VoterStatus, page, limit int) ([]model.Voter, int64, error) {
	query := r.DB.Model(&model.Voter{}).Where("campaign_id = ?", campaignID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var voters []model.Voter
	err := query.Order("id ASC").Offset((page - 1) * limit).Limit(limit).Find(&voters).Error
	return voters, total, err
}

// EligibleForAssignment selects voters that can be handed to a reviewer:
// pending review, with a phone number, never successfully contacted, and
// not claimed by anyone right now. It must be called inside the claim
// transaction: the selected rows are locked with SKIP LOCKED so concurrent
// claims walk past each other instead of picking the same voters. Ordering
// by id keeps the scan stable across retries.
func (r *VoterRepository) EligibleForAssignment(tx *gorm.DB, campaignID uint, limit int) ([]model.Voter, error) {
	var voters []model.Voter
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("voters.campaign_id = ? AND voters.status = ? AND voters.phone <> ''", campaignID, model.VoterPendingReview).
		Where("NOT EXISTS (SELECT 1 FROM verification_calls vc WHERE vc.voter_id = voters.id AND vc.result IN ? AND vc.deleted_at IS NULL)",
			[]model.CallResult{model.CallAnswered, model.CallConfirmed}).
		Where("NOT EXISTS (SELECT 1 FROM call_assignments ca WHERE ca.voter_id = voters.id AND ca.status IN ? AND ca.deleted_at IS NULL)",
			[]model.AssignmentStatus{model.AssignmentPending, model.AssignmentInProgress}).
		Order("voters.id ASC").
		Limit(limit).
		Find(&voters).Error
	return voters, err
}

func (r *VoterRepository) UpdateStatus(tx *gorm.DB, voterID uint, status model.VoterStatus) error {
	return tx.Model(&model.Voter{}).
		Where("id = ?", voterID).
		Update("status", status).
		Error
}

// MarkVerifiedByCall advances the voter state machine after a successful
// terminal call outcome. Voters already moved out of pending review are
// left untouched.
func (r *VoterRepository) MarkVerifiedByCall(tx *gorm.DB, voterID uint) error {
	return tx.Model(&model.Voter{}).
		Where("id = ? AND status = ?", voterID, model.VoterPendingReview).
		Update("status", model.VoterVerified).
		Error
}

func (r *VoterRepository) CountByStatus(campaignID uint) (map[model.VoterStatus]int64, error) {
	type row struct {
		Status model.VoterStatus
		Count  int64
	}
	var rows []row
	err := r.DB.Model(&model.Voter{}).
		Select("status, COUNT(*) AS count").
		Where("campaign_id = ?", campaignID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.VoterStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
