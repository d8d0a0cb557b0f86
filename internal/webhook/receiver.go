// Package webhook processes signed callbacks from the transport process:
// incoming messages, delivery-status updates and connection events.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/bengkelhub/wa-bridge/internal/model"
	"github.com/bengkelhub/wa-bridge/internal/repository"
)

// SignatureHeader carries the HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Signature"

// Event discriminators.
const (
	EventMessage       = "message"
	EventMessageStatus = "message_status"
	EventConnection    = "connection"
)

// Event is the webhook payload. Only the fields relevant to the
// discriminated event type are populated.
type Event struct {
	Event     string   `json:"event"`
	MessageID string   `json:"messageId,omitempty"`
	From      string   `json:"from,omitempty"`
	Type      string   `json:"type,omitempty"`
	Body      string   `json:"body,omitempty"`
	Caption   string   `json:"caption,omitempty"`
	Timestamp int64    `json:"timestamp,omitempty"`
	Status    string   `json:"status,omitempty"`
	Connected bool     `json:"connected,omitempty"`
	Devices   []string `json:"devices,omitempty"`
}

// SessionSink receives connection events so the in-memory session state
// tracks what the transport reports, not just the persisted snapshot.
type SessionSink interface {
	ApplyConnectionEvent(status string, connected bool)
}

// Receiver validates and applies webhook events.
type Receiver struct {
	Configs  repository.GatewayConfigRepositoryInterface
	Outbound repository.OutboundMessageRepositoryInterface
	Inbound  repository.InboundMessageRepositoryInterface
	Sessions SessionSink
	Log      *zap.Logger
}

// ValidSignature compares the hex HMAC-SHA256 of body against the supplied
// signature in constant time.
func ValidSignature(body []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Handle processes one webhook delivery and returns the HTTP status to
// answer with: 200 on success or ignorable payloads, 401 on signature
// failure, 500 on a processing error. No writes happen before the
// signature check passes.
func (r *Receiver) Handle(body []byte, signature string) int {
	cfg, err := r.Configs.GetActive()
	if err != nil {
		r.Log.Error("webhook: failed to load gateway configuration", zap.Error(err))
		return http.StatusInternalServerError
	}
	if cfg == nil {
		r.Log.Warn("webhook received but no active gateway configuration, dropping")
		return http.StatusOK
	}

	// An empty secret skips verification. That is a deliberate
	// trust-on-first-use posture for local setups; startup logs a
	// hardening warning when this is the case.
	if cfg.WebhookSecret != "" && !ValidSignature(body, signature, cfg.WebhookSecret) {
		r.Log.Warn("webhook signature mismatch, rejecting")
		return http.StatusUnauthorized
	}

	var evt Event
	if err := json.Unmarshal(body, &evt); err != nil {
		// Don't punish the sender for payloads we can't read; the
		// remote would retry forever on a non-2xx.
		r.Log.Warn("webhook: unparseable payload, ignoring", zap.Error(err))
		return http.StatusOK
	}

	switch evt.Event {
	case EventMessage:
		return r.handleMessage(&evt, body, cfg)
	case EventMessageStatus:
		return r.handleMessageStatus(&evt)
	case EventConnection:
		return r.handleConnection(&evt, cfg)
	default:
		r.Log.Info("webhook: unknown event type, ignoring", zap.String("event", evt.Event))
		return http.StatusOK
	}
}

func (r *Receiver) handleMessage(evt *Event, raw []byte, cfg *model.GatewayConfig) int {
	msg := &model.InboundMessage{
		Phone:      evt.From,
		Type:       evt.Type,
		Content:    evt.Body,
		Caption:    evt.Caption,
		Direction:  "incoming",
		ReceivedAt: eventTime(evt.Timestamp),
		RawPayload: raw,
	}
	if evt.MessageID != "" {
		id := evt.MessageID
		msg.TransportMsgID = &id
	}
	created, err := r.Inbound.CreateIfAbsent(msg)
	if err != nil {
		r.Log.Error("webhook: failed to store inbound message", zap.Error(err))
		return http.StatusInternalServerError
	}
	if !created {
		r.Log.Debug("webhook: duplicate inbound message, skipped",
			zap.String("transport_message_id", evt.MessageID))
	}
	return http.StatusOK
}

// handleMessageStatus applies a delivery report. Update-if-exists only: a
// status for an unknown transport id is logged and dropped, never turned
// into a placeholder record.
func (r *Receiver) handleMessageStatus(evt *Event) int {
	if evt.MessageID == "" {
		r.Log.Warn("webhook: message_status without messageId, ignoring")
		return http.StatusOK
	}
	matched, err := r.Outbound.UpdateDeliveryStatus(evt.MessageID, evt.Status, eventTime(evt.Timestamp))
	if err != nil {
		r.Log.Error("webhook: failed to update delivery status", zap.Error(err))
		return http.StatusInternalServerError
	}
	if !matched {
		r.Log.Info("webhook: message_status matched no message or was a duplicate",
			zap.String("transport_message_id", evt.MessageID),
			zap.String("status", evt.Status),
		)
	}
	return http.StatusOK
}

func (r *Receiver) handleConnection(evt *Event, cfg *model.GatewayConfig) int {
	snap := model.ConnectionSnapshot{
		Connected:   evt.Connected,
		Status:      evt.Status,
		Devices:     evt.Devices,
		LastCheckAt: time.Now(),
	}
	if err := r.Configs.UpdateConnectionStatus(cfg.ID, snap); err != nil {
		r.Log.Error("webhook: failed to update connection snapshot", zap.Error(err))
		return http.StatusInternalServerError
	}
	if r.Sessions != nil {
		r.Sessions.ApplyConnectionEvent(evt.Status, evt.Connected)
	}
	r.Log.Info("webhook: connection status updated",
		zap.Bool("connected", evt.Connected),
		zap.String("status", evt.Status),
	)
	return http.StatusOK
}

func eventTime(unix int64) time.Time {
	if unix <= 0 {
		return time.Now()
	}
	return time.Unix(unix, 0)
}
