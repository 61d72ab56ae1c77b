package service

import (
	"errors"
	"time"

	"campaign_call_backend/internal/model"
	"campaign_call_backend/internal/repository"
	"campaign_call_backend/internal/util"
	"campaign_call_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// VerificationCallService owns the attempt ledger and the per-attempt
// survey responses.
type VerificationCallService struct {
	CallRepo       *repository.VerificationCallRepository
	AssignmentRepo *repository.CallAssignmentRepository
	VoterRepo      *repository.VoterRepository
	SurveyRepo     *repository.SurveyRepository
	ResponseRepo   *repository.SurveyResponseRepository
	DB             *gorm.DB
}

func NewVerificationCallService(
	callRepo *repository.VerificationCallRepository,
	assignmentRepo *repository.CallAssignmentRepository,
	voterRepo *repository.VoterRepository,
	surveyRepo *repository.SurveyRepository,
	responseRepo *repository.SurveyResponseRepository,
	db *gorm.DB,
) *VerificationCallService {
	return &VerificationCallService{
		CallRepo:       callRepo,
		AssignmentRepo: assignmentRepo,
		VoterRepo:      voterRepo,
		SurveyRepo:     surveyRepo,
		ResponseRepo:   responseRepo,
		DB:             db,
	}
}

type LogCallInput struct {
	VoterID         uint
	ReviewerID      uint
	AssignmentID    *uint
	Result          model.CallResult
	DurationSeconds int
	Notes           string
	SurveyID        *uint
}

// LogCall records one realized phone call. Attempt number, the insert and
// the assignment/voter side effects all happen in one transaction:
// attempt_number is max+1 under a locked read, a terminal successful
// result completes the owning assignment and notifies the voter state
// machine, and an invalid-number result flags the voter unreachable. The
// unique (voter, attempt) index plus a bounded retry absorbs the rare race
// of two reviewers logging for the same voter at once.
func (s *VerificationCallService) LogCall(input LogCallInput) (*model.VerificationCall, error) {
	if !input.Result.Valid() {
		return nil, util.ErrInvalidCallResult
	}

	var created *model.VerificationCall
	err := claimWithRetry("call logging", func() error {
		var err error
		created, err = s.logCallOnce(input)
		return err
	}, zap.Uint("voterId", input.VoterID), zap.Uint("reviewerId", input.ReviewerID))
	if err != nil {
		return nil, err
	}

	monitoring.VerificationCalls.WithLabelValues(string(input.Result)).Inc()
	return created, nil
}

func (s *VerificationCallService) logCallOnce(input LogCallInput) (*model.VerificationCall, error) {
	var created *model.VerificationCall
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var voter model.Voter
		if err := tx.First(&voter, input.VoterID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrVoterNotFound
			}
			return err
		}

		var assignment *model.CallAssignment
		if input.AssignmentID != nil {
			var a model.CallAssignment
			if err := tx.First(&a, *input.AssignmentID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return util.ErrAssignmentNotFound
				}
				return err
			}
			if a.VoterID != voter.ID {
				return util.ErrAssignmentNotFound
			}
			if a.ReviewerID != input.ReviewerID {
				return util.ErrAssignmentNotOwned
			}
			assignment = &a
		}

		maxAttempt, err := s.CallRepo.MaxAttemptNumber(tx, voter.ID)
		if err != nil {
			return err
		}

		created = &model.VerificationCall{
			VoterID:         voter.ID,
			AssignmentID:    input.AssignmentID,
			ReviewerID:      input.ReviewerID,
			AttemptNumber:   maxAttempt + 1,
			CalledAt:        time.Now(),
			DurationSeconds: input.DurationSeconds,
			Result:          input.Result,
			SurveyID:        input.SurveyID,
			Notes:           input.Notes,
		}
		if err := s.CallRepo.Create(tx, created); err != nil {
			return err
		}

		if input.Result.IsTerminalSuccess() {
			if assignment != nil && assignment.IsActive() {
				if err := s.AssignmentRepo.UpdateStatus(tx, assignment.ID, model.AssignmentCompleted); err != nil {
					return err
				}
			}
			if err := s.VoterRepo.MarkVerifiedByCall(tx, voter.ID); err != nil {
				return err
			}
		}

		if created.IsInvalidNumber() {
			if err := s.VoterRepo.UpdateStatus(tx, voter.ID, model.VoterUnreachable); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ScheduleNextAttempt sets the follow-up time on a call whose result
// allows one (no answer, busy, callback requested). hoursFromNow falls
// back to the default follow-up horizon when not positive.
func (s *VerificationCallService) ScheduleNextAttempt(callID, reviewerID uint, hoursFromNow int) (*model.VerificationCall, error) {
	call, err := s.CallRepo.FindByID(callID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCallNotFound
		}
		return nil, err
	}
	if call.ReviewerID != reviewerID {
		return nil, util.ErrAssignmentNotOwned
	}
	if !call.RequiresFollowUp() {
		return nil, util.ErrCallNotFollowUp
	}

	if hoursFromNow <= 0 {
		hoursFromNow = util.DefaultFollowUpHours
	}
	next := time.Now().Add(time.Duration(hoursFromNow) * time.Hour)
	if err := s.CallRepo.ScheduleNext(call.ID, next); err != nil {
		return nil, err
	}
	call.NextAttemptAt = &next
	return call, nil
}

type RecordResponseInput struct {
	CallID     uint
	QuestionID uint
	AnsweredBy uint
	Value      string
	Values     []string // multi-select; wins over Value when present
}

// RecordResponse attaches an answer to the specific call attempt that
// produced it. The write is an atomic upsert on (call_id, question_id):
// answering the same question twice within one attempt updates the row in
// place, while a later attempt gets its own independent row. When the last
// question of the call's survey is answered the call is flagged
// survey-completed.
func (s *VerificationCallService) RecordResponse(input RecordResponseInput) (*model.SurveyResponse, error) {
	call, err := s.CallRepo.FindByID(input.CallID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCallNotFound
		}
		return nil, err
	}

	question, err := s.SurveyRepo.FindQuestion(input.QuestionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}

	value := input.Value
	if len(input.Values) > 0 {
		value, err = model.EncodeMultiValue(input.Values)
		if err != nil {
			return nil, err
		}
	}

	var stored *model.SurveyResponse
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		callID := call.ID
		response := &model.SurveyResponse{
			SurveyID:   question.SurveyID,
			QuestionID: question.ID,
			VoterID:    call.VoterID,
			CallID:     &callID,
			AnsweredBy: input.AnsweredBy,
			Value:      value,
			AnsweredAt: time.Now(),
		}
		if err := s.ResponseRepo.Upsert(tx, response); err != nil {
			return err
		}

		// Re-read: on conflict the insert struct does not carry the id of
		// the row that was actually updated.
		var err error
		stored, err = s.ResponseRepo.FindByCallAndQuestion(tx, call.ID, question.ID)
		if err != nil {
			return err
		}

		if call.SurveyID == nil {
			if err := tx.Model(&model.VerificationCall{}).
				Where("id = ?", call.ID).
				Update("survey_id", question.SurveyID).Error; err != nil {
				return err
			}
			call.SurveyID = &question.SurveyID
		}

		if !call.SurveyCompleted {
			total, err := s.SurveyRepo.CountQuestions(question.SurveyID)
			if err != nil {
				return err
			}
			answered, err := s.ResponseRepo.CountAnsweredForCall(tx, call.ID)
			if err != nil {
				return err
			}
			if total > 0 && answered >= total {
				if err := s.CallRepo.MarkSurveyCompleted(tx, call.ID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// GetVoterCallHistory returns every attempt for a voter in attempt order,
// each carrying the responses collected during that attempt.
func (s *VerificationCallService) GetVoterCallHistory(voterID uint) ([]model.VerificationCall, error) {
	if _, err := s.VoterRepo.FindByID(voterID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrVoterNotFound
		}
		return nil, err
	}
	return s.CallRepo.HistoryByVoter(voterID)
}

func (s *VerificationCallService) GetCallResponses(callID uint) ([]model.SurveyResponse, error) {
	if _, err := s.CallRepo.FindByID(callID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCallNotFound
		}
		return nil, err
	}
	return s.ResponseRepo.FindByCall(callID)
}

// GetFollowUpsDue lists this reviewer's calls whose scheduled retry time
// has passed.
func (s *VerificationCallService) GetFollowUpsDue(reviewerID uint) ([]model.VerificationCall, error) {
	return s.CallRepo.FollowUpsDue(reviewerID, time.Now())
}

// GetResponseHistory returns every answer a voter gave to one question
// across all attempts, oldest attempt first.
func (s *VerificationCallService) GetResponseHistory(voterID, questionID uint) ([]model.SurveyResponse, error) {
	return s.ResponseRepo.HistoryByVoterAndQuestion(voterID, questionID)
}
