package controller

import (
	"errors"

	"campaign_call_backend/internal/model"
	"campaign_call_backend/internal/service"
	"campaign_call_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type VoterController struct {
	VoterService *service.VoterService
	CallService  *service.VerificationCallService
}

func NewVoterController(voterService *service.VoterService, callService *service.VerificationCallService) *VoterController {
	return &VoterController{
		VoterService: voterService,
		CallService:  callService,
	}
}

// swagger:model RegisterVoterRequest
type RegisterVoterRequest struct {
	CampaignID  uint   `json:"campaignId" binding:"required"`
	DocumentID  string `json:"documentId" binding:"required"`
	FullName    string `json:"fullName" binding:"required"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	VotingPlace string `json:"votingPlace"`
	VotingTable string `json:"votingTable"`
}

// Register godoc
// @Summary Register a voter in a campaign
// @Tags voters
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body RegisterVoterRequest true "voter data"
// @Success 201 {object} util.Response
// @Failure 409 {object} util.Response "document already registered"
// @Router /api/voters [post]
func (c *VoterController) Register(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req RegisterVoterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	voter := &model.Voter{
		CampaignID:   req.CampaignID,
		DocumentID:   req.DocumentID,
		FullName:     req.FullName,
		Phone:        req.Phone,
		Address:      req.Address,
		VotingPlace:  req.VotingPlace,
		VotingTable:  req.VotingTable,
		RegisteredBy: user.UserID,
	}
	if err := c.VoterService.RegisterVoter(voter); err != nil {
		switch {
		case errors.Is(err, util.ErrDuplicateVoterDocument):
			util.Conflict(ctx, err.Error())
		case errors.Is(err, util.ErrCampaignNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, gin.H{"voter": voter})
}

// Get godoc
// @Summary Voter detail
// @Tags voters
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "voter id"
// @Success 200 {object} util.Response
// @Router /api/voters/{id} [get]
func (c *VoterController) Get(ctx *gin.Context) {
	voterID := util.MustParseUint(ctx.Param("id"))
	voter, err := c.VoterService.GetVoter(voterID)
	if err != nil {
		if errors.Is(err, util.ErrVoterNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"voter": voter})
}

// List godoc
// @Summary Voters in a campaign
// @Tags voters
// @Produce json
// @Security ApiKeyAuth
// @Param campaignId query int true "campaign id"
// @Param status query string false "voter status filter"
// @Param page query int false "page"
// @Param limit query int false "page size"
// @Success 200 {object} util.Response
// @Router /api/voters [get]
func (c *VoterController) List(ctx *gin.Context) {
	campaignID := util.MustParseUint(ctx.Query("campaignId"))
	if campaignID == 0 {
		util.BadRequest(ctx, "campaignId is required")
		return
	}

	page := int(util.MustParseUint(ctx.DefaultQuery("page", "1")))
	limit := int(util.MustParseUint(ctx.DefaultQuery("limit", "20")))
	status := model.VoterStatus(ctx.Query("status"))

	voters, total, err := c.VoterService.ListVoters(campaignID, status, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  voters,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// CallHistory godoc
// @Summary Full attempt history for a voter
// @Description Attempts in order, each with the survey answers recorded during that attempt.
// @Tags voters
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "voter id"
// @Success 200 {object} util.Response
// @Router /api/voters/{id}/calls [get]
func (c *VoterController) CallHistory(ctx *gin.Context) {
	voterID := util.MustParseUint(ctx.Param("id"))
	calls, err := c.CallService.GetVoterCallHistory(voterID)
	if err != nil {
		if errors.Is(err, util.ErrVoterNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"calls":    calls,
		"attempts": len(calls),
	})
}
