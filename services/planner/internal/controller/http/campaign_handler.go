package http

import (
	"net/http"

	"content-planner/pkg/logger"
	"content-planner/services/planner/internal/entity"
	"content-planner/services/planner/internal/usecase"

	"github.com/gin-gonic/gin"
)

type CampaignHandler struct {
	campaignUseCase usecase.CampaignUseCase
	logger          *logger.Logger
}

func NewCampaignHandler(campaignUseCase usecase.CampaignUseCase, logger *logger.Logger) *CampaignHandler {
	return &CampaignHandler{
		campaignUseCase: campaignUseCase,
		logger:          logger,
	}
}

// ListCampaigns godoc
// @Summary      List campaigns
// @Tags         campaigns
// @Produce      json
// @Success      200  {array}   entity.Campaign
// @Failure      500  {object}  map[string]string
// @Router       /campaigns [get]
func (h *CampaignHandler) ListCampaigns(c *gin.Context) {
	campaigns, err := h.campaignUseCase.ListCampaigns(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, "list campaigns", err)
		return
	}

	c.JSON(http.StatusOK, campaigns)
}

// GetCampaign godoc
// @Summary      Get campaign by ID
// @Tags         campaigns
// @Produce      json
// @Param        id   path      string  true  "Campaign ID"
// @Success      200  {object}  entity.Campaign
// @Failure      404  {object}  map[string]string
// @Router       /campaigns/{id} [get]
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	campaign, err := h.campaignUseCase.GetCampaign(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "get campaign", err)
		return
	}

	c.JSON(http.StatusOK, campaign)
}

// CreateCampaign godoc
// @Summary      Create a campaign
// @Description  Status defaults to planning.
// @Tags         campaigns
// @Accept       json
// @Produce      json
// @Param        campaign  body      entity.CreateCampaignInput  true  "Campaign"
// @Success      201       {object}  entity.Campaign
// @Failure      400       {object}  ErrorResponse
// @Router       /campaigns [post]
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var input entity.CreateCampaignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		writeBindError(c, err)
		return
	}

	campaign, err := h.campaignUseCase.CreateCampaign(c.Request.Context(), input)
	if err != nil {
		writeError(c, h.logger, "create campaign", err)
		return
	}

	c.JSON(http.StatusCreated, campaign)
}

// UpdateCampaign godoc
// @Summary      Update a campaign
// @Tags         campaigns
// @Accept       json
// @Produce      json
// @Param        id        path      string                true  "Campaign ID"
// @Param        campaign  body      entity.CampaignPatch  true  "Fields to change"
// @Success      200       {object}  entity.Campaign
// @Failure      400       {object}  ErrorResponse
// @Failure      404       {object}  map[string]string
// @Router       /campaigns/{id} [put]
func (h *CampaignHandler) UpdateCampaign(c *gin.Context) {
	var patch entity.CampaignPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		writeBindError(c, err)
		return
	}

	campaign, err := h.campaignUseCase.UpdateCampaign(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		writeError(c, h.logger, "update campaign", err)
		return
	}

	c.JSON(http.StatusOK, campaign)
}

// DeleteCampaign godoc
// @Summary      Delete a campaign
// @Tags         campaigns
// @Produce      json
// @Param        id   path      string  true  "Campaign ID"
// @Success      200  {object}  MessageResponse
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /campaigns/{id} [delete]
func (h *CampaignHandler) DeleteCampaign(c *gin.Context) {
	if err := h.campaignUseCase.DeleteCampaign(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.logger, "delete campaign", err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Campaign deleted successfully"})
}
