package util

import "errors"

var (
	ErrUserNotFound              = errors.New("user not found")
	ErrEmailRegistered           = errors.New("email already registered")
	ErrCampaignNotFound          = errors.New("campaign not found")
	ErrVoterNotFound             = errors.New("voter not found")
	ErrVoterNotInCampaign        = errors.New("voter does not belong to this campaign")
	ErrDuplicateVoterDocument    = errors.New("document already registered in this campaign")
	ErrVoterNotEligible          = errors.New("voter not eligible for assignment")
	ErrDuplicateActiveAssignment = errors.New("voter already has an active assignment")
	ErrNoCallersAvailable        = errors.New("no reviewers available for auto assignment")
	ErrAssignmentNotFound        = errors.New("assignment not found")
	ErrAssignmentNotOwned        = errors.New("assignment belongs to another reviewer")
	ErrAssignmentFailed          = errors.New("assignment could not be completed, try again")
	ErrCallNotFound              = errors.New("verification call not found")
	ErrCallNotFollowUp           = errors.New("call result does not allow a follow-up schedule")
	ErrSurveyNotFound            = errors.New("survey not found")
	ErrQuestionNotFound          = errors.New("survey question not found")
	ErrInvalidPriority           = errors.New("invalid priority value")
	ErrInvalidCallResult         = errors.New("invalid call result")
)
