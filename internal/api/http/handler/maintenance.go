package handler

import (
	"net/http"
	"time"

	"github.com/clovalink/clovalink-server/internal/logger"
	"github.com/clovalink/clovalink-server/internal/service"
)

// Maintenance exposes the scheduled jobs to a trusted external scheduler.
// Both operations are idempotent batches; invoking them again over an
// already-clean set is a no-op.
type Maintenance struct {
	link          *service.Link
	activity      *service.Activity
	linkRetention time.Duration
	activityTTL   time.Duration
	logger        *logger.Logger
}

func NewMaintenance(link *service.Link, activity *service.Activity, linkRetention, activityTTL time.Duration, logger *logger.Logger) *Maintenance {
	return &Maintenance{
		link:          link,
		activity:      activity,
		linkRetention: linkRetention,
		activityTTL:   activityTTL,
		logger:        logger,
	}
}

func (h *Maintenance) SweepLinks(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.link.Sweep(r.Context(), h.linkRetention)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Deleted int `json:"deleted"`
	}{Deleted: deleted})
}

func (h *Maintenance) PurgeActivities(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.activity.Purge(r.Context(), h.activityTTL)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Deleted int64 `json:"deleted"`
	}{Deleted: deleted})
}
