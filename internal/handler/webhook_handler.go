// internal/handler/webhook_handler.go
package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/bengkelhub/wa-bridge/internal/webhook"
)

// WebhookHandler terminates the transport's signed callbacks.
type WebhookHandler struct {
	Receiver *webhook.Receiver
}

func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusInternalServerError)
		return
	}

	status := h.Receiver.Handle(body, r.Header.Get(webhook.SignatureHeader))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	switch status {
	case http.StatusOK:
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	case http.StatusUnauthorized:
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "invalid signature"})
	default:
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "processing error"})
	}
}
