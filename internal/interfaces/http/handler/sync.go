package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appsync "github.com/gescom/backend/internal/application/sync"
	"github.com/gescom/backend/internal/infrastructure/scheduler"
)

// SyncRunner runs sync cycles against the platform.
type SyncRunner interface {
	SyncOnce(ctx context.Context) (*appsync.Result, error)
	Running() bool
}

// SyncSchedule controls the periodic sync loop.
type SyncSchedule interface {
	Start(intervalMinutes int) error
	Stop(ctx context.Context) error
	Running() bool
	Interval() time.Duration
	Disabled() bool
	Resume()
}

// SyncHandler exposes manual sync runs and scheduler control.
type SyncHandler struct {
	BaseHandler
	runner   SyncRunner
	schedule SyncSchedule
	logger   *zap.Logger
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(runner SyncRunner, schedule SyncSchedule, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		runner:   runner,
		schedule: schedule,
		logger:   logger,
	}
}

// Run triggers one sync cycle in the background.
// POST /api/v1/sync/run
func (h *SyncHandler) Run(c *gin.Context) {
	if h.runner.Running() {
		h.Conflict(c, "A sync cycle is already in progress")
		return
	}

	// Detached from the request context: the cycle outlives the response.
	go func() {
		result, err := h.runner.SyncOnce(context.Background())
		if err != nil {
			if !errors.Is(err, appsync.ErrSyncInProgress) {
				h.logger.Error("Manual sync cycle failed", zap.Error(err))
			}
			return
		}
		h.logger.Info("Manual sync cycle finished",
			zap.Int("fetched", result.Fetched),
			zap.Int("created", result.Created),
			zap.Int("updated", result.Updated),
			zap.Int("failed", result.Failed),
		)
	}()

	h.Accepted(c, gin.H{"status": "started"})
}

// StartRequest is the scheduler start payload
type StartRequest struct {
	IntervalMinutes int `json:"interval_minutes" binding:"required,min=1"`
}

// Start launches the periodic sync scheduler.
// POST /api/v1/sync/start
func (h *SyncHandler) Start(c *gin.Context) {
	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "interval_minutes is required and must be at least 1")
		return
	}

	if err := h.schedule.Start(req.IntervalMinutes); err != nil {
		switch {
		case errors.Is(err, scheduler.ErrAlreadyRunning):
			h.Conflict(c, "Scheduler is already running")
		case errors.Is(err, scheduler.ErrInvalidInterval):
			h.BadRequest(c, "Invalid sync interval")
		default:
			h.HandleError(c, err)
		}
		return
	}

	h.Success(c, gin.H{"interval_minutes": req.IntervalMinutes})
}

// Stop halts the periodic sync scheduler.
// POST /api/v1/sync/stop
func (h *SyncHandler) Stop(c *gin.Context) {
	if err := h.schedule.Stop(c.Request.Context()); err != nil {
		if errors.Is(err, scheduler.ErrNotRunning) {
			h.Conflict(c, "Scheduler is not running")
			return
		}
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"status": "stopped"})
}

// Resume re-enables a scheduler suspended by an authentication failure.
// POST /api/v1/sync/resume
func (h *SyncHandler) Resume(c *gin.Context) {
	h.schedule.Resume()
	h.Success(c, gin.H{"status": "resumed"})
}

// Status reports the sync and scheduler state.
// GET /api/v1/sync/status
func (h *SyncHandler) Status(c *gin.Context) {
	h.Success(c, gin.H{
		"sync_running":      h.runner.Running(),
		"scheduler_running": h.schedule.Running(),
		"interval_minutes":  int(h.schedule.Interval().Minutes()),
		"suspended":         h.schedule.Disabled(),
	})
}
