package model

import "time"

type AssignmentStatus string

const (
	AssignmentPending    AssignmentStatus = "pending"
	AssignmentInProgress AssignmentStatus = "in_progress"
	AssignmentCompleted  AssignmentStatus = "completed"
	AssignmentReassigned AssignmentStatus = "reassigned"
)

type AssignmentPriority string

const (
	PriorityLow    AssignmentPriority = "low"
	PriorityMedium AssignmentPriority = "medium"
	PriorityHigh   AssignmentPriority = "high"
	PriorityUrgent AssignmentPriority = "urgent"
)

// priorityRanks is the total order used when sorting a reviewer's queue.
// Never compare priority strings directly.
var priorityRanks = map[AssignmentPriority]int{
	PriorityLow:    1,
	PriorityMedium: 2,
	PriorityHigh:   3,
	PriorityUrgent: 4,
}

func (p AssignmentPriority) Rank() int {
	return priorityRanks[p]
}

func (p AssignmentPriority) Valid() bool {
	_, ok := priorityRanks[p]
	return ok
}

// CallAssignment is a claim binding one voter to one reviewer within a
// campaign. At most one active (pending or in_progress) assignment may
// exist per voter at any time; that invariant is enforced inside the
// claim transaction, not here. Rows are never deleted (audit trail).
// swagger:model CallAssignment
type CallAssignment struct {
	BaseModel
	VoterID      uint               `gorm:"index;not null" json:"voterId"`
	ReviewerID   uint               `gorm:"index;not null" json:"reviewerId"`
	AssignedByID uint               `gorm:"index" json:"assignedById"`
	CampaignID   uint               `gorm:"index;not null" json:"campaignId"`
	Status       AssignmentStatus   `gorm:"type:enum('pending','in_progress','completed','reassigned');default:'pending';index" json:"status"`
	Priority     AssignmentPriority `gorm:"type:enum('low','medium','high','urgent');default:'medium'" json:"priority"`
	CompletedAt  *time.Time         `json:"completedAt,omitempty"`

	Voter *Voter `gorm:"foreignKey:VoterID" json:"voter,omitempty"`
}

func (CallAssignment) TableName() string {
	return "call_assignments"
}

func (a *CallAssignment) IsActive() bool {
	return a.Status == AssignmentPending || a.Status == AssignmentInProgress
}
