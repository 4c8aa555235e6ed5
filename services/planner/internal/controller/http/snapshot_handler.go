package http

import (
	"net/http"
	"time"

	"content-planner/pkg/logger"
	"content-planner/services/planner/internal/usecase"

	"github.com/gin-gonic/gin"
)

type SnapshotHandler struct {
	snapshotUseCase usecase.SnapshotUseCase
	logger          *logger.Logger
}

func NewSnapshotHandler(snapshotUseCase usecase.SnapshotUseCase, logger *logger.Logger) *SnapshotHandler {
	return &SnapshotHandler{
		snapshotUseCase: snapshotUseCase,
		logger:          logger,
	}
}

// GetSnapshot godoc
// @Summary      Dump every collection
// @Tags         snapshot
// @Produce      json
// @Success      200  {object}  usecase.Snapshot
// @Failure      500  {object}  map[string]string
// @Router       /snapshot [get]
func (h *SnapshotHandler) GetSnapshot(c *gin.Context) {
	snapshot, err := h.snapshotUseCase.Snapshot(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, "read snapshot", err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// ExportSnapshot godoc
// @Summary      Upload a snapshot to S3
// @Tags         snapshot
// @Produce      json
// @Success      201  {object}  usecase.ExportResult
// @Failure      500  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /snapshot/export [post]
func (h *SnapshotHandler) ExportSnapshot(c *gin.Context) {
	result, err := h.snapshotUseCase.Export(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, "export snapshot", err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Health godoc
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Router       /health [get]
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Timestamp: time.Now().UTC()})
}
