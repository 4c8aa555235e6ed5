package http

import (
	"net/http"

	"content-planner/pkg/logger"
	"content-planner/services/planner/internal/entity"
	"content-planner/services/planner/internal/usecase"

	"github.com/gin-gonic/gin"
)

type ChannelHandler struct {
	channelUseCase usecase.ChannelUseCase
	logger         *logger.Logger
}

func NewChannelHandler(channelUseCase usecase.ChannelUseCase, logger *logger.Logger) *ChannelHandler {
	return &ChannelHandler{
		channelUseCase: channelUseCase,
		logger:         logger,
	}
}

// ListChannels godoc
// @Summary      List channels
// @Tags         channels
// @Produce      json
// @Success      200  {array}   entity.Channel
// @Failure      500  {object}  map[string]string
// @Router       /channels [get]
func (h *ChannelHandler) ListChannels(c *gin.Context) {
	channels, err := h.channelUseCase.ListChannels(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, "list channels", err)
		return
	}

	c.JSON(http.StatusOK, channels)
}

// GetChannel godoc
// @Summary      Get channel by ID
// @Tags         channels
// @Produce      json
// @Param        id   path      string  true  "Channel ID"
// @Success      200  {object}  entity.Channel
// @Failure      404  {object}  map[string]string
// @Router       /channels/{id} [get]
func (h *ChannelHandler) GetChannel(c *gin.Context) {
	channel, err := h.channelUseCase.GetChannel(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "get channel", err)
		return
	}

	c.JSON(http.StatusOK, channel)
}

// CreateChannel godoc
// @Summary      Create a channel
// @Description  Type defaults to social and color to #000000.
// @Tags         channels
// @Accept       json
// @Produce      json
// @Param        channel  body      entity.CreateChannelInput  true  "Channel"
// @Success      201      {object}  entity.Channel
// @Failure      400      {object}  ErrorResponse
// @Router       /channels [post]
func (h *ChannelHandler) CreateChannel(c *gin.Context) {
	var input entity.CreateChannelInput
	if err := c.ShouldBindJSON(&input); err != nil {
		writeBindError(c, err)
		return
	}

	channel, err := h.channelUseCase.CreateChannel(c.Request.Context(), input)
	if err != nil {
		writeError(c, h.logger, "create channel", err)
		return
	}

	c.JSON(http.StatusCreated, channel)
}

// UpdateChannel godoc
// @Summary      Update a channel
// @Tags         channels
// @Accept       json
// @Produce      json
// @Param        id       path      string               true  "Channel ID"
// @Param        channel  body      entity.ChannelPatch  true  "Fields to change"
// @Success      200      {object}  entity.Channel
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  map[string]string
// @Router       /channels/{id} [put]
func (h *ChannelHandler) UpdateChannel(c *gin.Context) {
	var patch entity.ChannelPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		writeBindError(c, err)
		return
	}

	channel, err := h.channelUseCase.UpdateChannel(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		writeError(c, h.logger, "update channel", err)
		return
	}

	c.JSON(http.StatusOK, channel)
}

// DeleteChannel godoc
// @Summary      Delete a channel
// @Description  Posts and schedules that reference the channel are handled by the configured delete policy.
// @Tags         channels
// @Produce      json
// @Param        id   path      string  true  "Channel ID"
// @Success      200  {object}  MessageResponse
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /channels/{id} [delete]
func (h *ChannelHandler) DeleteChannel(c *gin.Context) {
	if err := h.channelUseCase.DeleteChannel(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.logger, "delete channel", err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Channel deleted successfully"})
}
