package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/clovalink/clovalink-server/internal/logger"
	"github.com/clovalink/clovalink-server/internal/model"
	"github.com/clovalink/clovalink-server/internal/service"
)

// Activity exposes the company audit trail.
type Activity struct {
	activity       *service.Activity
	contextManager model.ContextManager
	logger         *logger.Logger
}

func NewActivity(activity *service.Activity, contextManager model.ContextManager, logger *logger.Logger) *Activity {
	return &Activity{activity: activity, contextManager: contextManager, logger: logger}
}

type activityResponse struct {
	ID          uuid.UUID          `json:"id"`
	Type        model.ActivityType `json:"type"`
	Description string             `json:"description"`
	EmployeeID  uuid.UUID          `json:"employeeId"`
	CreatedAt   time.Time          `json:"createdAt"`
}

func (h *Activity) List(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := h.contextManager.GetEmployeeIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	activities, err := h.activity.List(r.Context(), employeeID, limit)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	out := make([]activityResponse, 0, len(activities))
	for _, a := range activities {
		out = append(out, activityResponse{
			ID:          a.ID,
			Type:        a.Type,
			Description: a.Description,
			EmployeeID:  a.EmployeeID,
			CreatedAt:   a.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
