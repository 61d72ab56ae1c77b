package controller

import (
	"errors"

	"campaign_call_backend/internal/model"
	"campaign_call_backend/internal/service"
	"campaign_call_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// CallAssignmentController exposes the assignment scheduler: batch claims,
// manual and balanced assignment, the reviewer queue and supervisor
// reporting.
type CallAssignmentController struct {
	AssignmentService *service.CallAssignmentService
}

func NewCallAssignmentController(assignmentService *service.CallAssignmentService) *CallAssignmentController {
	return &CallAssignmentController{AssignmentService: assignmentService}
}

// swagger:model LoadBatchRequest
type LoadBatchRequest struct {
	CampaignID      uint `json:"campaignId" binding:"required"`
	TargetQueueSize int  `json:"targetQueueSize" binding:"omitempty,min=0,max=50"`
}

// LoadBatch godoc
// @Summary Top up the caller queue ("cargar 5")
// @Description Claims eligible voters until the reviewer's pending queue reaches the target size. Returns 0 when the queue is already full or no voters remain.
// @Tags assignments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body LoadBatchRequest true "claim parameters"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /api/assignments/load-batch [post]
func (c *CallAssignmentController) LoadBatch(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req LoadBatchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if req.TargetQueueSize == 0 {
		req.TargetQueueSize = util.DefaultQueueSize
	}

	created, err := c.AssignmentService.LoadBatch(req.CampaignID, user.UserID, user.UserID, req.TargetQueueSize)
	if err != nil {
		if errors.Is(err, util.ErrAssignmentFailed) {
			util.Conflict(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"created": created})
}

// swagger:model AssignVoterRequest
type AssignVoterRequest struct {
	VoterID    uint   `json:"voterId" binding:"required"`
	ReviewerID uint   `json:"reviewerId" binding:"required"`
	CampaignID uint   `json:"campaignId" binding:"required"`
	Priority   string `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
}

// AssignVoter godoc
// @Summary Manually assign one voter to a reviewer
// @Tags assignments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body AssignVoterRequest true "assignment"
// @Success 201 {object} util.Response
// @Failure 409 {object} util.Response "voter already actively assigned"
// @Router /api/assignments/assign [post]
func (c *CallAssignmentController) AssignVoter(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req AssignVoterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	priority := model.AssignmentPriority(req.Priority)
	if req.Priority == "" {
		priority = model.PriorityMedium
	}

	assignment, err := c.AssignmentService.AssignVoter(req.VoterID, req.ReviewerID, req.CampaignID, user.UserID, priority)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrDuplicateActiveAssignment), errors.Is(err, util.ErrVoterNotEligible):
			util.Conflict(ctx, err.Error())
		case errors.Is(err, util.ErrVoterNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrVoterNotInCampaign), errors.Is(err, util.ErrInvalidPriority):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, gin.H{"assignment": assignment})
}

// swagger:model AssignVotersRequest
type AssignVotersRequest struct {
	CampaignID uint   `json:"campaignId" binding:"required"`
	ReviewerID uint   `json:"reviewerId" binding:"required"`
	VoterIDs   []uint `json:"voterIds" binding:"required,min=1"`
}

// AssignVoters godoc
// @Summary Assign a batch of voters to one reviewer
// @Description Skip-and-continue: voters that cannot be assigned are reported in skipped, not treated as errors.
// @Tags assignments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body AssignVotersRequest true "batch assignment"
// @Success 201 {object} util.Response
// @Router /api/assignments/assign-batch [post]
func (c *CallAssignmentController) AssignVoters(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req AssignVotersRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	created, skipped, err := c.AssignmentService.AssignVoters(req.CampaignID, req.ReviewerID, req.VoterIDs, user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{
		"assignments": created,
		"created":     len(created),
		"skipped":     skipped,
	})
}

// swagger:model AutoAssignRequest
type AutoAssignRequest struct {
	CampaignID  uint   `json:"campaignId" binding:"required"`
	VoterIDs    []uint `json:"voterIds" binding:"required,min=1"`
	ReviewerIDs []uint `json:"reviewerIds" binding:"required"`
}

// AutoAssign godoc
// @Summary Distribute voters over reviewers round-robin
// @Tags assignments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body AutoAssignRequest true "distribution"
// @Success 201 {object} util.Response
// @Failure 400 {object} util.Response "no reviewers available"
// @Router /api/assignments/auto-assign [post]
func (c *CallAssignmentController) AutoAssign(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req AutoAssignRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	created, skipped, err := c.AssignmentService.AutoAssignVoters(req.CampaignID, req.VoterIDs, req.ReviewerIDs, user.UserID)
	if err != nil {
		if errors.Is(err, util.ErrNoCallersAvailable) {
			util.BadRequest(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{
		"assignments": created,
		"created":     len(created),
		"skipped":     skipped,
	})
}

// swagger:model ReassignRequest
type ReassignRequest struct {
	CampaignID     uint `json:"campaignId" binding:"required"`
	FromReviewerID uint `json:"fromReviewerId" binding:"required"`
	ToReviewerID   uint `json:"toReviewerId" binding:"required"`
}

// Reassign godoc
// @Summary Move a reviewer's pending assignments to another reviewer
// @Description In-progress assignments are not moved.
// @Tags assignments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body ReassignRequest true "reassignment"
// @Success 200 {object} util.Response
// @Router /api/assignments/reassign [post]
func (c *CallAssignmentController) Reassign(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req ReassignRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	moved, err := c.AssignmentService.ReassignPending(req.FromReviewerID, req.ToReviewerID, req.CampaignID, user.UserID)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"moved": moved})
}

// swagger:model UpdatePriorityRequest
type UpdatePriorityRequest struct {
	AssignmentIDs []uint `json:"assignmentIds" binding:"required,min=1"`
	Priority      string `json:"priority" binding:"required,oneof=low medium high urgent"`
}

// UpdatePriority godoc
// @Summary Bulk-change assignment priority
// @Tags assignments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body UpdatePriorityRequest true "priority change"
// @Success 200 {object} util.Response
// @Router /api/assignments/priority [put]
func (c *CallAssignmentController) UpdatePriority(ctx *gin.Context) {
	var req UpdatePriorityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	updated, err := c.AssignmentService.UpdatePriority(req.AssignmentIDs, model.AssignmentPriority(req.Priority))
	if err != nil {
		if errors.Is(err, util.ErrInvalidPriority) {
			util.BadRequest(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"updated": updated})
}

// GetQueue godoc
// @Summary Reviewer's pending queue
// @Description Ordered urgent first, oldest first within the same priority.
// @Tags assignments
// @Produce json
// @Security ApiKeyAuth
// @Param campaignId query int true "campaign id"
// @Success 200 {object} util.Response
// @Router /api/assignments/queue [get]
func (c *CallAssignmentController) GetQueue(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	campaignID := util.MustParseUint(ctx.Query("campaignId"))
	if campaignID == 0 {
		util.BadRequest(ctx, "campaignId is required")
		return
	}

	queue, err := c.AssignmentService.GetCallerQueue(user.UserID, campaignID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"queue": queue,
		"count": len(queue),
	})
}

// GetNext godoc
// @Summary Head of the reviewer's queue
// @Tags assignments
// @Produce json
// @Security ApiKeyAuth
// @Param campaignId query int true "campaign id"
// @Success 200 {object} util.Response
// @Router /api/assignments/next [get]
func (c *CallAssignmentController) GetNext(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	campaignID := util.MustParseUint(ctx.Query("campaignId"))
	if campaignID == 0 {
		util.BadRequest(ctx, "campaignId is required")
		return
	}

	next, err := c.AssignmentService.GetNextAssignment(user.UserID, campaignID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"assignment": next})
}

// Start godoc
// @Summary Mark an assignment in progress
// @Tags assignments
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "assignment id"
// @Success 200 {object} util.Response
// @Router /api/assignments/{id}/start [post]
func (c *CallAssignmentController) Start(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	assignmentID := util.MustParseUint(ctx.Param("id"))
	assignment, err := c.AssignmentService.StartAssignment(assignmentID, user.UserID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrAssignmentNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrAssignmentNotOwned):
			util.Forbidden(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{"assignment": assignment})
}

// GetWorkload godoc
// @Summary Per-reviewer assignment counts
// @Tags assignments
// @Produce json
// @Security ApiKeyAuth
// @Param campaignId query int true "campaign id"
// @Success 200 {object} util.Response
// @Router /api/assignments/workload [get]
func (c *CallAssignmentController) GetWorkload(ctx *gin.Context) {
	campaignID := util.MustParseUint(ctx.Query("campaignId"))
	if campaignID == 0 {
		util.BadRequest(ctx, "campaignId is required")
		return
	}

	var reviewerIDs []uint
	for _, raw := range ctx.QueryArray("reviewerId") {
		if id := util.MustParseUint(raw); id != 0 {
			reviewerIDs = append(reviewerIDs, id)
		}
	}

	workloads, err := c.AssignmentService.GetCallerWorkload(campaignID, reviewerIDs)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"workloads": workloads})
}

// GetStatistics godoc
// @Summary Campaign-wide assignment progress
// @Tags assignments
// @Produce json
// @Security ApiKeyAuth
// @Param campaignId query int true "campaign id"
// @Success 200 {object} util.Response
// @Router /api/assignments/statistics [get]
func (c *CallAssignmentController) GetStatistics(ctx *gin.Context) {
	campaignID := util.MustParseUint(ctx.Query("campaignId"))
	if campaignID == 0 {
		util.BadRequest(ctx, "campaignId is required")
		return
	}

	stats, err := c.AssignmentService.GetCampaignStatistics(campaignID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"statistics": stats})
}
