package controller

import (
	"errors"
	"time"

	"campaign_call_backend/internal/model"
	"campaign_call_backend/internal/service"
	"campaign_call_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CampaignController struct {
	CampaignService *service.CampaignService
	SurveyService   *service.SurveyService
}

func NewCampaignController(campaignService *service.CampaignService, surveyService *service.SurveyService) *CampaignController {
	return &CampaignController{
		CampaignService: campaignService,
		SurveyService:   surveyService,
	}
}

// swagger:model CreateCampaignRequest
type CreateCampaignRequest struct {
	Name         string     `json:"name" binding:"required"`
	Description  string     `json:"description"`
	Municipality string     `json:"municipality"`
	Department   string     `json:"department"`
	ElectionDate *time.Time `json:"electionDate"`
}

// Create godoc
// @Summary Create a campaign
// @Tags campaigns
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body CreateCampaignRequest true "campaign data"
// @Success 201 {object} util.Response
// @Router /api/campaigns [post]
func (c *CampaignController) Create(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req CreateCampaignRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	campaign := &model.Campaign{
		Name:         req.Name,
		Description:  req.Description,
		Municipality: req.Municipality,
		Department:   req.Department,
		ElectionDate: req.ElectionDate,
		OwnerID:      user.UserID,
		Active:       true,
	}
	if err := c.CampaignService.CreateCampaign(campaign); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{"campaign": campaign})
}

// Get godoc
// @Summary Campaign detail
// @Tags campaigns
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "campaign id"
// @Success 200 {object} util.Response
// @Router /api/campaigns/{id} [get]
func (c *CampaignController) Get(ctx *gin.Context) {
	campaignID := util.MustParseUint(ctx.Param("id"))
	campaign, err := c.CampaignService.GetCampaign(campaignID)
	if err != nil {
		if errors.Is(err, util.ErrCampaignNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"campaign": campaign})
}

// List godoc
// @Summary Active campaigns
// @Tags campaigns
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/campaigns [get]
func (c *CampaignController) List(ctx *gin.Context) {
	campaigns, err := c.CampaignService.ListActiveCampaigns()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"campaigns": campaigns})
}

// Overview godoc
// @Summary Voter progress and call outcomes for a campaign
// @Tags campaigns
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "campaign id"
// @Success 200 {object} util.Response
// @Router /api/campaigns/{id}/overview [get]
func (c *CampaignController) Overview(ctx *gin.Context) {
	campaignID := util.MustParseUint(ctx.Param("id"))
	overview, err := c.CampaignService.GetOverview(campaignID)
	if err != nil {
		if errors.Is(err, util.ErrCampaignNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, overview)
}

// swagger:model CreateSurveyRequest
type CreateSurveyRequest struct {
	Title       string                          `json:"title" binding:"required"`
	Description string                          `json:"description"`
	Questions   []service.SurveyQuestionRequest `json:"questions" binding:"required,min=1"`
}

// CreateSurvey godoc
// @Summary Attach a verification survey to a campaign
// @Tags campaigns
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "campaign id"
// @Param body body CreateSurveyRequest true "survey"
// @Success 201 {object} util.Response
// @Router /api/campaigns/{id}/survey [post]
func (c *CampaignController) CreateSurvey(ctx *gin.Context) {
	var req CreateSurveyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	campaignID := util.MustParseUint(ctx.Param("id"))
	survey, err := c.SurveyService.CreateSurvey(campaignID, req.Title, req.Description, req.Questions)
	if err != nil {
		if errors.Is(err, util.ErrCampaignNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{"survey": survey})
}

// GetSurvey godoc
// @Summary Active survey of a campaign
// @Tags campaigns
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "campaign id"
// @Success 200 {object} util.Response
// @Router /api/campaigns/{id}/survey [get]
func (c *CampaignController) GetSurvey(ctx *gin.Context) {
	campaignID := util.MustParseUint(ctx.Param("id"))
	survey, err := c.SurveyService.GetActiveSurvey(campaignID)
	if err != nil {
		if errors.Is(err, util.ErrSurveyNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"survey": survey})
}
