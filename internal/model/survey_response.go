package model

import (
	"encoding/json"
	"strings"
	"time"
)

// SurveyResponse is one answer to one question produced during one specific
// call attempt. The uniqueness key is (call_id, question_id), not
// (voter_id, question_id): re-submitting within the same attempt updates in
// place, while a new attempt for the same voter and question creates an
// independent row. The full answer history of a voter is recovered by
// walking its calls in attempt order and reading each call's responses.
// swagger:model SurveyResponse
type SurveyResponse struct {
	BaseModel
	SurveyID   uint      `gorm:"index;not null" json:"surveyId"`
	QuestionID uint      `gorm:"not null;index:idx_responses_call_question,unique,priority:2" json:"questionId"`
	VoterID    uint      `gorm:"index;not null" json:"voterId"`
	CallID     *uint     `gorm:"index:idx_responses_call_question,unique,priority:1" json:"callId,omitempty"`
	AnsweredBy uint      `gorm:"index" json:"answeredBy"`
	Value      string    `gorm:"type:text" json:"value"`
	AnsweredAt time.Time `gorm:"not null" json:"answeredAt"`
}

func (SurveyResponse) TableName() string {
	return "survey_responses"
}

// EncodeMultiValue serializes a multi-select answer as a JSON string array.
// Order is preserved so the round trip through DecodeMultiValue is exact.
func EncodeMultiValue(values []string) (string, error) {
	b, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func DecodeMultiValue(value string) ([]string, error) {
	var values []string
	if err := json.Unmarshal([]byte(value), &values); err != nil {
		return nil, err
	}
	return values, nil
}

// IsMultiValue reports whether the stored value looks like an encoded
// multi-select answer rather than a scalar.
func (r *SurveyResponse) IsMultiValue() bool {
	return strings.HasPrefix(r.Value, "[")
}
