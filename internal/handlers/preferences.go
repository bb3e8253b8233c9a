package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/plannerd/taskplanner/internal/orchestrator"
	"github.com/plannerd/taskplanner/internal/request"
)

// PreferencesHandler handles user preference requests
type PreferencesHandler struct {
	orch *orchestrator.Orchestrator
}

// NewPreferencesHandler creates a new preferences handler
func NewPreferencesHandler(orch *orchestrator.Orchestrator) *PreferencesHandler {
	return &PreferencesHandler{orch: orch}
}

// RegisterRoutes registers preference routes on the given router
func (h *PreferencesHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.GetPreferences).Methods("GET")
	r.HandleFunc("", h.UpdatePreferences).Methods("PATCH")
}

// UpdatePreferencesRequest represents a partial preferences update
type UpdatePreferencesRequest struct {
	Timezone         *string `json:"timezone,omitempty"`
	DefaultRemindMin *int    `json:"default_remind_min,omitempty"`
}

// GetPreferences returns the user's stored preferences
func (h *PreferencesHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	prefs, err := h.orch.GetPreferences(r.Context(), user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve preferences")
		return
	}

	respondJSON(w, http.StatusOK, prefs)
}

// UpdatePreferences updates the user's timezone or default reminder lead.
// Existing tasks keep the settings they were created with.
func (h *PreferencesHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req UpdatePreferencesRequest
	if err := decodeBody(w, r, &req); err != nil {
		return
	}

	ctx := r.Context()
	if req.Timezone != nil {
		if err := h.orch.SetTimezone(ctx, user.ID, *req.Timezone); err != nil {
			respondOrchestratorError(w, err, "Failed to update preferences")
			return
		}
	}
	if req.DefaultRemindMin != nil {
		if err := h.orch.SetDefaultRemind(ctx, user.ID, *req.DefaultRemindMin); err != nil {
			respondOrchestratorError(w, err, "Failed to update preferences")
			return
		}
	}

	prefs, err := h.orch.GetPreferences(ctx, user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve preferences")
		return
	}

	respondJSON(w, http.StatusOK, prefs)
}
