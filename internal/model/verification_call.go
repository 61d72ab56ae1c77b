package model

import "time"

type CallResult string

const (
	CallAnswered          CallResult = "answered"
	CallNoAnswer          CallResult = "no_answer"
	CallBusy              CallResult = "busy"
	CallWrongNumber       CallResult = "wrong_number"
	CallInvalidNumber     CallResult = "invalid_number"
	CallRejected          CallResult = "rejected"
	CallCallbackRequested CallResult = "callback_requested"
	CallNotInterested     CallResult = "not_interested"
	CallConfirmed         CallResult = "confirmed"
)

var callResults = map[CallResult]bool{
	CallAnswered:          true,
	CallNoAnswer:          true,
	CallBusy:              true,
	CallWrongNumber:       true,
	CallInvalidNumber:     true,
	CallRejected:          true,
	CallCallbackRequested: true,
	CallNotInterested:     true,
	CallConfirmed:         true,
}

func (r CallResult) Valid() bool {
	return callResults[r]
}

// IsTerminalSuccess reports whether this result closes the assignment and
// marks the voter verified.
func (r CallResult) IsTerminalSuccess() bool {
	return r == CallAnswered || r == CallConfirmed
}

// VerificationCall records one realized phone call against a voter.
// AttemptNumber is 1-based and strictly increasing per voter, assigned
// inside the logging transaction. Rows are immutable after creation except
// for next_attempt_at and survey_completed.
// swagger:model VerificationCall
type VerificationCall struct {
	BaseModel
	VoterID         uint       `gorm:"not null;index:idx_calls_voter_attempt,unique,priority:1" json:"voterId"`
	AssignmentID    *uint      `gorm:"index" json:"assignmentId,omitempty"`
	ReviewerID      uint       `gorm:"index;not null" json:"reviewerId"`
	AttemptNumber   int        `gorm:"not null;index:idx_calls_voter_attempt,unique,priority:2" json:"attemptNumber"`
	CalledAt        time.Time  `gorm:"not null;index" json:"calledAt"`
	DurationSeconds int        `gorm:"default:0" json:"durationSeconds"`
	Result          CallResult `gorm:"type:enum('answered','no_answer','busy','wrong_number','invalid_number','rejected','callback_requested','not_interested','confirmed');not null" json:"result"`
	NextAttemptAt   *time.Time `json:"nextAttemptAt,omitempty"`
	SurveyID        *uint      `gorm:"index" json:"surveyId,omitempty"`
	SurveyCompleted bool       `gorm:"default:false" json:"surveyCompleted"`
	Notes           string     `gorm:"type:text" json:"notes"`

	Responses []SurveyResponse `gorm:"foreignKey:CallID" json:"responses,omitempty"`
}

func (VerificationCall) TableName() string {
	return "verification_calls"
}

// IsSuccessful counts as progress for scheduling: the voter was reached or
// asked to be called back, so the item does not go straight back to the pool.
func (c *VerificationCall) IsSuccessful() bool {
	return c.Result == CallAnswered || c.Result == CallConfirmed || c.Result == CallCallbackRequested
}

func (c *VerificationCall) RequiresFollowUp() bool {
	return c.Result == CallNoAnswer || c.Result == CallBusy || c.Result == CallCallbackRequested
}

func (c *VerificationCall) IsInvalidNumber() bool {
	return c.Result == CallWrongNumber || c.Result == CallInvalidNumber
}
