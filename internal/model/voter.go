package model

import "gorm.io/gorm"

type VoterStatus string

const (
	VoterPendingReview VoterStatus = "pending_review"
	VoterVerified      VoterStatus = "verified"
	VoterRejected      VoterStatus = "rejected"
	VoterUnreachable   VoterStatus = "unreachable"
	VoterDuplicate     VoterStatus = "duplicate"
)

// Voter is a campaign registrant that may be called for verification.
// The status machine is owned by the registration flow; the call scheduler
// only advances it on terminal call outcomes (verified, unreachable).
// swagger:model Voter
type Voter struct {
	BaseModel
	CampaignID   uint        `gorm:"index:idx_voters_campaign_document,unique;not null" json:"campaignId"`
	DocumentID   string      `gorm:"size:20;index:idx_voters_campaign_document,unique;not null" json:"documentId"`
	FullName     string      `gorm:"size:150;not null" json:"fullName"`
	Phone        string      `gorm:"size:20" json:"phone"`
	Address      string      `gorm:"size:255" json:"address"`
	VotingPlace  string      `gorm:"size:150" json:"votingPlace"`
	VotingTable  string      `gorm:"size:20" json:"votingTable"`
	Status       VoterStatus `gorm:"type:enum('pending_review','verified','rejected','unreachable','duplicate');default:'pending_review';index" json:"status"`
	RegisteredBy uint        `gorm:"index" json:"registeredBy"`
	RefCode      string      `gorm:"size:36;uniqueIndex" json:"refCode"`
}

func (Voter) TableName() string {
	return "voters"
}

// RefCode is the public identifier printed on call sheets; never reuse the
// numeric primary key outside the API.
func (v *Voter) BeforeCreate(tx *gorm.DB) (err error) {
	if v.RefCode == "" {
		v.RefCode = GenerateUUID()
	}
	return
}

func (v *Voter) HasPhone() bool {
	return v.Phone != ""
}
