// internal/errors/errors.go
package appErrors

import "fmt"

// ErrGatewayDisabled signals that no active gateway configuration exists.
// Callers treat this as "feature disabled", not as a fault.
type ErrGatewayDisabled struct{}

func (e *ErrGatewayDisabled) Error() string {
	return "whatsapp gateway is not configured or inactive"
}

func NewGatewayDisabled() error {
	return &ErrGatewayDisabled{}
}

// ErrMessageNotFound is returned when an outbound message lookup misses.
type ErrMessageNotFound struct {
	MessageID int64
}

func (e *ErrMessageNotFound) Error() string {
	return fmt.Sprintf("outbound message with ID %d not found", e.MessageID)
}

func NewMessageNotFound(id int64) error {
	return &ErrMessageNotFound{MessageID: id}
}

// ErrTemplateNotFound is returned when no active template exists for a trigger.
type ErrTemplateNotFound struct {
	Trigger string
}

func (e *ErrTemplateNotFound) Error() string {
	return fmt.Sprintf("no active follow-up template for trigger %q", e.Trigger)
}

func NewTemplateNotFound(trigger string) error {
	return &ErrTemplateNotFound{Trigger: trigger}
}
