// internal/handler/health_handler.go
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/bengkelhub/wa-bridge/internal/session"
)

// HealthHandler reports process liveness plus last-known session state.
type HealthHandler struct {
	Manager *session.Manager
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	st := h.Manager.Status()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":        "ok",
		"sessionStatus": st.State,
		"isReady":       st.IsReady,
	})
}
