package repository

import (
	"time"

	"campaign_call_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CallAssignmentRepository struct {
	DB *gorm.DB
}

func NewCallAssignmentRepository(db *gorm.DB) *CallAssignmentRepository {
	return &CallAssignmentRepository{DB: db}
}

func (r *CallAssignmentRepository) Create(tx *gorm.DB, assignment *model.CallAssignment) error {
	return tx.Create(assignment).Error
}

func (r *CallAssignmentRepository) FindByID(id uint) (*model.CallAssignment, error) {
	var assignment model.CallAssignment
	err := r.DB.First(&assignment, id).Error
	return &assignment, err
}

// CountActiveForReviewer counts pending plus in_progress assignments a
// reviewer holds inside one campaign. Assignments from other campaigns do
// not count toward the queue target.
func (r *CallAssignmentRepository) CountActiveForReviewer(tx *gorm.DB, campaignID, reviewerID uint) (int64, error) {
	var count int64
	err := tx.Model(&model.CallAssignment{}).
		Where("campaign_id = ? AND reviewer_id = ? AND status IN ?",
			campaignID, reviewerID,
			[]model.AssignmentStatus{model.AssignmentPending, model.AssignmentInProgress}).
		Count(&count).Error
	return count, err
}

// FindActiveByVoter returns the current claim on a voter, if any.
func (r *CallAssignmentRepository) FindActiveByVoter(tx *gorm.DB, voterID uint) (*model.CallAssignment, error) {
	var assignment model.CallAssignment
	err := tx.
		Where("voter_id = ? AND status IN ?", voterID,
			[]model.AssignmentStatus{model.AssignmentPending, model.AssignmentInProgress}).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// PendingQueue is the reviewer's personal work list: pending items only,
// urgent first, oldest first within the same priority.
func (r *CallAssignmentRepository) PendingQueue(reviewerID, campaignID uint) ([]model.CallAssignment, error) {
	var assignments []model.CallAssignment
	err := r.DB.
		Preload("Voter").
		Where("reviewer_id = ? AND campaign_id = ? AND status = ?",
			reviewerID, campaignID, model.AssignmentPending).
		Order("FIELD(priority, 'urgent', 'high', 'medium', 'low') ASC, created_at ASC").
		Find(&assignments).Error
	return assignments, err
}

func (r *CallAssignmentRepository) UpdateStatus(tx *gorm.DB, id uint, status model.AssignmentStatus) error {
	updates := map[string]interface{}{"status": status}
	if status == model.AssignmentCompleted {
		now := time.Now()
		updates["completed_at"] = &now
	}
	return tx.Model(&model.CallAssignment{}).
		Where("id = ?", id).
		Updates(updates).
		Error
}

// LockPendingForReviewer locks and returns a reviewer's pending
// assignments in a campaign. In-progress assignments are excluded: a
// reviewer actively on a call is never displaced.
func (r *CallAssignmentRepository) LockPendingForReviewer(tx *gorm.DB, campaignID, reviewerID uint) ([]model.CallAssignment, error) {
	var assignments []model.CallAssignment
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("reviewer_id = ? AND campaign_id = ? AND status = ?",
			reviewerID, campaignID, model.AssignmentPending).
		Find(&assignments).Error
	return assignments, err
}

// MarkReassigned closes a claim as superseded. The row stays in place so
// the history of who held the assignment before survives.
func (r *CallAssignmentRepository) MarkReassigned(tx *gorm.DB, id uint) error {
	return tx.Model(&model.CallAssignment{}).
		Where("id = ?", id).
		Update("status", model.AssignmentReassigned).Error
}

// StartPending flips an assignment to in_progress only while it is still
// pending and still owned by the reviewer. Zero rows affected means the
// assignment moved under the caller between read and write.
func (r *CallAssignmentRepository) StartPending(id, reviewerID uint) (int64, error) {
	result := r.DB.Model(&model.CallAssignment{}).
		Where("id = ? AND reviewer_id = ? AND status = ?",
			id, reviewerID, model.AssignmentPending).
		Update("status", model.AssignmentInProgress)
	return result.RowsAffected, result.Error
}

// UpdatePriority bulk-changes priority without touching status.
func (r *CallAssignmentRepository) UpdatePriority(ids []uint, priority model.AssignmentPriority) (int64, error) {
	result := r.DB.Model(&model.CallAssignment{}).
		Where("id IN ?", ids).
		Update("priority", priority)
	return result.RowsAffected, result.Error
}

type statusCount struct {
	ReviewerID uint
	Status     model.AssignmentStatus
	Count      int64
}

// WorkloadCounts returns per-reviewer assignment counts grouped by status.
func (r *CallAssignmentRepository) WorkloadCounts(campaignID uint, reviewerIDs []uint) (map[uint]map[model.AssignmentStatus]int64, error) {
	query := r.DB.Model(&model.CallAssignment{}).
		Select("reviewer_id, status, COUNT(*) AS count").
		Where("campaign_id = ?", campaignID).
		Group("reviewer_id, status")
	if len(reviewerIDs) > 0 {
		query = query.Where("reviewer_id IN ?", reviewerIDs)
	}

	var rows []statusCount
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[uint]map[model.AssignmentStatus]int64)
	for _, row := range rows {
		if counts[row.ReviewerID] == nil {
			counts[row.ReviewerID] = make(map[model.AssignmentStatus]int64)
		}
		counts[row.ReviewerID][row.Status] = row.Count
	}
	return counts, nil
}

// CampaignCounts returns campaign-wide assignment counts grouped by status.
func (r *CallAssignmentRepository) CampaignCounts(campaignID uint) (map[model.AssignmentStatus]int64, error) {
	type row struct {
		Status model.AssignmentStatus
		Count  int64
	}
	var rows []row
	err := r.DB.Model(&model.CallAssignment{}).
		Select("status, COUNT(*) AS count").
		Where("campaign_id = ?", campaignID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.AssignmentStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
