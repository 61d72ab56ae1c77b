package model

type QuestionType string

const (
	QuestionText         QuestionType = "text"
	QuestionSingleChoice QuestionType = "single_choice"
	QuestionMultiChoice  QuestionType = "multi_choice"
	QuestionYesNo        QuestionType = "yes_no"
)

// swagger:model Survey
type Survey struct {
	BaseModel
	CampaignID  uint             `gorm:"index;not null" json:"campaignId"`
	Title       string           `gorm:"size:150;not null" json:"title"`
	Description string           `gorm:"type:text" json:"description"`
	Active      bool             `gorm:"default:true" json:"active"`
	Questions   []SurveyQuestion `gorm:"foreignKey:SurveyID" json:"questions,omitempty"`
}

func (Survey) TableName() string {
	return "surveys"
}

// swagger:model SurveyQuestion
type SurveyQuestion struct {
	BaseModel
	SurveyID uint         `gorm:"index;not null" json:"surveyId"`
	Text     string       `gorm:"size:500;not null" json:"text"`
	Type     QuestionType `gorm:"type:enum('text','single_choice','multi_choice','yes_no');default:'text'" json:"type"`
	Options  string       `gorm:"type:json" json:"options,omitempty"` // JSON array of choices
	Required bool         `gorm:"default:false" json:"required"`
	Order    int          `gorm:"default:0" json:"order"`
}

func (SurveyQuestion) TableName() string {
	return "survey_questions"
}
