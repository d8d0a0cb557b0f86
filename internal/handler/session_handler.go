// internal/handler/session_handler.go
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/bengkelhub/wa-bridge/internal/session"
)

// SessionHandler exposes the session manager to the admin panel.
type SessionHandler struct {
	Manager *session.Manager
}

// Status reports the in-memory session state; it never blocks on the
// transport.
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	st := h.Manager.Status()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"status":  st.State,
		"isReady": st.IsReady,
		"hasQR":   st.HasQR,
	})
}

func (h *SessionHandler) QR(w http.ResponseWriter, r *http.Request) {
	qr, err := h.Manager.QR(r.Context())
	if err != nil {
		http.Error(w, "failed to fetch qr: "+err.Error(), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if !qr.Available {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": qr.Message})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"qr":      qr.QR,
		"qrImage": qr.QRImage,
	})
}

func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	st, err := h.Manager.Start(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": err.Error()})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"status":  st.State,
		"isReady": st.IsReady,
		"hasQR":   st.HasQR,
	})
}

func (h *SessionHandler) Terminate(w http.ResponseWriter, r *http.Request) {
	st, err := h.Manager.Terminate(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": err.Error()})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"status":  st.State,
	})
}
