package http

import (
	"net/http"

	"content-planner/pkg/logger"
	"content-planner/services/planner/internal/entity"
	"content-planner/services/planner/internal/query"
	"content-planner/services/planner/internal/usecase"

	"github.com/gin-gonic/gin"
)

type ScheduleHandler struct {
	scheduleUseCase usecase.ScheduleUseCase
	logger          *logger.Logger
}

func NewScheduleHandler(scheduleUseCase usecase.ScheduleUseCase, logger *logger.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleUseCase: scheduleUseCase,
		logger:          logger,
	}
}

// ListSchedules godoc
// @Summary      List schedules
// @Description  startDate and endDate are inclusive. A date without a time as endDate covers that whole day.
// @Tags         schedules
// @Produce      json
// @Param        postId     query     string  false  "Post ID"
// @Param        startDate  query     string  false  "RFC 3339 timestamp or YYYY-MM-DD"
// @Param        endDate    query     string  false  "RFC 3339 timestamp or YYYY-MM-DD"
// @Success      200        {array}   entity.Schedule
// @Failure      400        {object}  map[string]string
// @Failure      500        {object}  map[string]string
// @Router       /schedules [get]
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	filters, err := query.ParseScheduleFilters(c.Query("postId"), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	schedules, err := h.scheduleUseCase.ListSchedules(c.Request.Context(), filters)
	if err != nil {
		writeError(c, h.logger, "list schedules", err)
		return
	}

	c.JSON(http.StatusOK, schedules)
}

// GetSchedule godoc
// @Summary      Get schedule by ID
// @Tags         schedules
// @Produce      json
// @Param        id   path      string  true  "Schedule ID"
// @Success      200  {object}  entity.Schedule
// @Failure      404  {object}  map[string]string
// @Router       /schedules/{id} [get]
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	schedule, err := h.scheduleUseCase.GetSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "get schedule", err)
		return
	}

	c.JSON(http.StatusOK, schedule)
}

// CreateSchedule godoc
// @Summary      Schedule a post on a channel
// @Tags         schedules
// @Accept       json
// @Produce      json
// @Param        schedule  body      entity.CreateScheduleInput  true  "Schedule"
// @Success      201       {object}  entity.Schedule
// @Failure      400       {object}  ErrorResponse
// @Router       /schedules [post]
func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	var input entity.CreateScheduleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		writeBindError(c, err)
		return
	}

	schedule, err := h.scheduleUseCase.CreateSchedule(c.Request.Context(), input)
	if err != nil {
		writeError(c, h.logger, "create schedule", err)
		return
	}

	c.JSON(http.StatusCreated, schedule)
}

// UpdateSchedule godoc
// @Summary      Update a schedule
// @Tags         schedules
// @Accept       json
// @Produce      json
// @Param        id        path      string                true  "Schedule ID"
// @Param        schedule  body      entity.SchedulePatch  true  "Fields to change"
// @Success      200       {object}  entity.Schedule
// @Failure      400       {object}  ErrorResponse
// @Failure      404       {object}  map[string]string
// @Router       /schedules/{id} [put]
func (h *ScheduleHandler) UpdateSchedule(c *gin.Context) {
	var patch entity.SchedulePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		writeBindError(c, err)
		return
	}

	schedule, err := h.scheduleUseCase.UpdateSchedule(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		writeError(c, h.logger, "update schedule", err)
		return
	}

	c.JSON(http.StatusOK, schedule)
}

// DeleteSchedule godoc
// @Summary      Delete a schedule
// @Tags         schedules
// @Produce      json
// @Param        id   path      string  true  "Schedule ID"
// @Success      200  {object}  MessageResponse
// @Failure      404  {object}  map[string]string
// @Router       /schedules/{id} [delete]
func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	if err := h.scheduleUseCase.DeleteSchedule(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.logger, "delete schedule", err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Schedule deleted successfully"})
}
