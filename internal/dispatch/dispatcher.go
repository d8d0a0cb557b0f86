// Package dispatch delivers single outbound messages through the
// transport and records the outcome.
package dispatch

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	appErrors "github.com/bengkelhub/wa-bridge/internal/errors"
	"github.com/bengkelhub/wa-bridge/internal/model"
	"github.com/bengkelhub/wa-bridge/internal/repository"
	"github.com/bengkelhub/wa-bridge/internal/transport"
)

// SendRef links a dispatch to the business object that triggered it.
type SendRef struct {
	CustomerID *int64
	ServiceID  *int64
	TemplateID *int64
	FollowUpID *int64
	Automated  bool
	Trigger    string
}

// SendResult is the structured outcome of one dispatch attempt. Failures
// at the transport boundary are data here, never raised errors.
type SendResult struct {
	Success    bool   `json:"success"`
	MessageID  string `json:"message_id,omitempty"`
	OutboundID int64  `json:"outbound_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Dispatcher sends messages one at a time: the WhatsApp Web client is
// single-threaded with respect to the chat protocol, so concurrent sends
// against it would interleave.
type Dispatcher struct {
	Configs   repository.GatewayConfigRepositoryInterface
	Outbound  repository.OutboundMessageRepositoryInterface
	Transport transport.Client
	Log       *zap.Logger

	mu sync.Mutex
}

// Send normalizes the destination, persists a pending record, invokes the
// transport and marks the record sent or failed exactly once. No retry
// here; retry policy belongs to the follow-up queue or manual resend.
func (d *Dispatcher) Send(ctx context.Context, phone, content string, ref SendRef) SendResult {
	cfg, err := d.Configs.GetActive()
	if err != nil {
		return SendResult{Error: "failed to load gateway configuration: " + err.Error()}
	}
	if cfg == nil {
		return SendResult{Error: appErrors.NewGatewayDisabled().Error()}
	}
	if strings.TrimSpace(phone) == "" {
		return SendResult{Error: "destination phone is empty"}
	}
	if strings.TrimSpace(content) == "" {
		return SendResult{Error: "message content is empty"}
	}
	normalized := NormalizePhone(phone)
	if normalized == "" {
		return SendResult{Error: "destination phone has no digits"}
	}

	msg := &model.OutboundMessage{
		Phone:      normalized,
		Content:    content,
		Status:     model.OutboundStatusPending,
		CustomerID: ref.CustomerID,
		ServiceID:  ref.ServiceID,
		TemplateID: ref.TemplateID,
		FollowUpID: ref.FollowUpID,
		Automated:  ref.Automated,
		Trigger:    ref.Trigger,
	}
	if err := d.Outbound.Create(msg); err != nil {
		d.Log.Error("failed to persist outbound message", zap.Error(err))
		return SendResult{Error: "failed to persist outbound message: " + err.Error()}
	}

	d.mu.Lock()
	outcome, err := d.Transport.SendMessage(ctx, ChatID(normalized), content)
	d.mu.Unlock()

	if err != nil {
		d.fail(msg, err.Error())
		return SendResult{OutboundID: msg.ID, Error: err.Error()}
	}
	if !outcome.Success {
		errText := outcome.RawBody
		if strings.TrimSpace(errText) == "" {
			errText = "transport rejected the message"
		}
		d.fail(msg, errText)
		return SendResult{OutboundID: msg.ID, Error: errText}
	}

	if err := d.Outbound.MarkSent(msg.ID, outcome.MessageID, outcome.RawBody); err != nil {
		d.Log.Error("message sent but status update failed",
			zap.Int64("outbound_id", msg.ID), zap.Error(err))
	}
	d.Log.Info("message dispatched",
		zap.Int64("outbound_id", msg.ID),
		zap.String("phone", normalized),
		zap.String("transport_message_id", outcome.MessageID),
		zap.Bool("automated", ref.Automated),
		zap.String("trigger", ref.Trigger),
	)
	return SendResult{Success: true, MessageID: outcome.MessageID, OutboundID: msg.ID}
}

// Resend starts a fresh attempt chain for a finished message. The original
// record stays untouched; retries are new rows, not mutations.
func (d *Dispatcher) Resend(ctx context.Context, outboundID int64) SendResult {
	msg, err := d.Outbound.GetByID(outboundID)
	if err != nil {
		return SendResult{Error: "failed to load outbound message: " + err.Error()}
	}
	if msg == nil {
		return SendResult{Error: appErrors.NewMessageNotFound(outboundID).Error()}
	}
	if msg.Status == model.OutboundStatusPending {
		return SendResult{Error: "message is still pending, nothing to resend"}
	}
	return d.Send(ctx, msg.Phone, msg.Content, SendRef{
		CustomerID: msg.CustomerID,
		ServiceID:  msg.ServiceID,
		TemplateID: msg.TemplateID,
		FollowUpID: msg.FollowUpID,
		Automated:  false,
		Trigger:    "manual_resend",
	})
}

func (d *Dispatcher) fail(msg *model.OutboundMessage, errText string) {
	if err := d.Outbound.MarkFailed(msg.ID, errText); err != nil {
		d.Log.Error("failed to mark message failed",
			zap.Int64("outbound_id", msg.ID), zap.Error(err))
	}
	d.Log.Warn("message dispatch failed",
		zap.Int64("outbound_id", msg.ID),
		zap.String("phone", msg.Phone),
		zap.String("error", errText),
	)
}
