package model

import "time"

// Campaign is the scope for voters, assignments and calls. Every claim,
// call and statistic is computed against exactly one campaign.
// swagger:model Campaign
type Campaign struct {
	BaseModel
	Name         string     `gorm:"size:150;not null" json:"name"`
	Description  string     `gorm:"type:text" json:"description"`
	Municipality string     `gorm:"size:100;index" json:"municipality"`
	Department   string     `gorm:"size:100" json:"department"`
	OwnerID      uint       `gorm:"index" json:"ownerId"`
	Active       bool       `gorm:"default:true;index" json:"active"`
	ElectionDate *time.Time `json:"electionDate,omitempty"`
}

func (Campaign) TableName() string {
	return "campaigns"
}
