package controller

import (
	"errors"

	"campaign_call_backend/internal/model"
	"campaign_call_backend/internal/service"
	"campaign_call_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type VerificationCallController struct {
	CallService *service.VerificationCallService
}

func NewVerificationCallController(callService *service.VerificationCallService) *VerificationCallController {
	return &VerificationCallController{CallService: callService}
}

// swagger:model LogCallRequest
type LogCallRequest struct {
	VoterID         uint   `json:"voterId" binding:"required"`
	AssignmentID    *uint  `json:"assignmentId"`
	Result          string `json:"result" binding:"required"`
	DurationSeconds int    `json:"durationSeconds" binding:"omitempty,min=0"`
	Notes           string `json:"notes"`
	SurveyID        *uint  `json:"surveyId"`
}

// LogCall godoc
// @Summary Record the outcome of a phone call
// @Description Attempt number is assigned server-side. A result of answered or confirmed completes the assignment and verifies the voter.
// @Tags calls
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body LogCallRequest true "call outcome"
// @Success 201 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /api/calls [post]
func (c *VerificationCallController) LogCall(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req LogCallRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	call, err := c.CallService.LogCall(service.LogCallInput{
		VoterID:         req.VoterID,
		ReviewerID:      user.UserID,
		AssignmentID:    req.AssignmentID,
		Result:          model.CallResult(req.Result),
		DurationSeconds: req.DurationSeconds,
		Notes:           req.Notes,
		SurveyID:        req.SurveyID,
	})
	if err != nil {
		switch {
		case errors.Is(err, util.ErrInvalidCallResult):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrVoterNotFound), errors.Is(err, util.ErrAssignmentNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrAssignmentNotOwned):
			util.Forbidden(ctx)
		case errors.Is(err, util.ErrAssignmentFailed):
			util.Conflict(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, gin.H{"call": call})
}

// swagger:model ScheduleNextRequest
type ScheduleNextRequest struct {
	HoursFromNow int `json:"hoursFromNow" binding:"omitempty,min=1,max=168"`
}

// ScheduleNext godoc
// @Summary Schedule a follow-up attempt for a call
// @Tags calls
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "call id"
// @Param body body ScheduleNextRequest true "delay"
// @Success 200 {object} util.Response
// @Router /api/calls/{id}/schedule-next [post]
func (c *VerificationCallController) ScheduleNext(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req ScheduleNextRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	callID := util.MustParseUint(ctx.Param("id"))
	call, err := c.CallService.ScheduleNextAttempt(callID, user.UserID, req.HoursFromNow)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrCallNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrAssignmentNotOwned):
			util.Forbidden(ctx)
		case errors.Is(err, util.ErrCallNotFollowUp):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{"call": call})
}

// swagger:model RecordResponseRequest
type RecordResponseRequest struct {
	QuestionID uint     `json:"questionId" binding:"required"`
	Value      string   `json:"value"`
	Values     []string `json:"values"`
}

// RecordResponse godoc
// @Summary Attach a survey answer to a call attempt
// @Description Re-submitting for the same call and question updates the answer in place. Multi-select answers go in values.
// @Tags calls
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "call id"
// @Param body body RecordResponseRequest true "answer"
// @Success 200 {object} util.Response
// @Router /api/calls/{id}/responses [post]
func (c *VerificationCallController) RecordResponse(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req RecordResponseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if req.Value == "" && len(req.Values) == 0 {
		util.BadRequest(ctx, "value or values is required")
		return
	}

	callID := util.MustParseUint(ctx.Param("id"))
	response, err := c.CallService.RecordResponse(service.RecordResponseInput{
		CallID:     callID,
		QuestionID: req.QuestionID,
		AnsweredBy: user.UserID,
		Value:      req.Value,
		Values:     req.Values,
	})
	if err != nil {
		switch {
		case errors.Is(err, util.ErrCallNotFound), errors.Is(err, util.ErrQuestionNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{"response": response})
}

// GetResponses godoc
// @Summary Answers collected during one call attempt
// @Tags calls
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "call id"
// @Success 200 {object} util.Response
// @Router /api/calls/{id}/responses [get]
func (c *VerificationCallController) GetResponses(ctx *gin.Context) {
	callID := util.MustParseUint(ctx.Param("id"))
	responses, err := c.CallService.GetCallResponses(callID)
	if err != nil {
		if errors.Is(err, util.ErrCallNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"responses": responses})
}

// GetFollowUps godoc
// @Summary Calls due for a retry by the current reviewer
// @Tags calls
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/calls/follow-ups [get]
func (c *VerificationCallController) GetFollowUps(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	calls, err := c.CallService.GetFollowUpsDue(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"calls": calls})
}

// GetResponseHistory godoc
// @Summary Every answer a voter gave to one question across attempts
// @Tags calls
// @Produce json
// @Security ApiKeyAuth
// @Param voterId query int true "voter id"
// @Param questionId query int true "question id"
// @Success 200 {object} util.Response
// @Router /api/calls/response-history [get]
func (c *VerificationCallController) GetResponseHistory(ctx *gin.Context) {
	voterID := util.MustParseUint(ctx.Query("voterId"))
	questionID := util.MustParseUint(ctx.Query("questionId"))
	if voterID == 0 || questionID == 0 {
		util.BadRequest(ctx, "voterId and questionId are required")
		return
	}

	responses, err := c.CallService.GetResponseHistory(voterID, questionID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"responses": responses})
}
