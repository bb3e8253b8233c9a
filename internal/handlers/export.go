package handlers

import (
	"net/http"

	"github.com/plannerd/taskplanner/internal/ics"
	"github.com/plannerd/taskplanner/internal/orchestrator"
	"github.com/plannerd/taskplanner/internal/request"
)

// ExportHandler serves the user's upcoming tasks as a downloadable
// iCalendar file
type ExportHandler struct {
	orch *orchestrator.Orchestrator
}

// NewExportHandler creates a new export handler
func NewExportHandler(orch *orchestrator.Orchestrator) *ExportHandler {
	return &ExportHandler{orch: orch}
}

// ExportICS handles GET /export.ics
func (h *ExportHandler) ExportICS(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	tasks, err := h.orch.ExportTasks(r.Context(), user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve tasks")
		return
	}

	data, err := ics.Build(tasks)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to build calendar")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="tasks.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
