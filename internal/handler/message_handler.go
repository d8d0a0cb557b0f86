// internal/handler/message_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bengkelhub/wa-bridge/internal/dispatch"
	"github.com/bengkelhub/wa-bridge/internal/transport"
)

// MessageHandler covers manual sends, resends and number checks.
type MessageHandler struct {
	Dispatcher *dispatch.Dispatcher
	Transport  transport.Client
}

// Send dispatches a single ad-hoc message. Transport failures come back as
// success=false with the stored error text; only malformed requests get a
// non-200.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Phone   string `json:"phone"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.Phone == "" || body.Message == "" {
		http.Error(w, "phone and message are required", http.StatusBadRequest)
		return
	}

	res := h.Dispatcher.Send(r.Context(), body.Phone, body.Message, dispatch.SendRef{
		Trigger: "manual",
	})
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

// Resend creates a fresh dispatch attempt for a finished message.
func (h *MessageHandler) Resend(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid message id", http.StatusBadRequest)
		return
	}

	res := h.Dispatcher.Resend(r.Context(), id)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

// CheckNumber asks the transport whether a phone number is registered on
// WhatsApp.
func (h *MessageHandler) CheckNumber(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	registered, err := h.Transport.CheckNumber(r.Context(), dispatch.NormalizePhone(body.Phone))
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": err.Error()})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"success":      true,
		"isRegistered": registered,
	})
}
