// Package transport talks to the external WhatsApp Web client process
// through its local HTTP control API. The Client interface is the port;
// production uses the HTTP adapter, tests use in-memory fakes.
package transport

import "context"

// Health is the transport process health report.
type Health struct {
	Status        string `json:"status"`
	SessionStatus string `json:"sessionStatus"`
	IsReady       bool   `json:"isReady"`
}

// SessionStatus describes the chat session lifecycle as reported by the
// transport.
type SessionStatus struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	IsReady bool   `json:"isReady"`
	HasQR   bool   `json:"hasQR"`
}

// QRCode carries the pairing QR. Available is false when the session is
// not waiting for a scan; that is a normal condition, not an error.
type QRCode struct {
	Available bool   `json:"available"`
	QR        string `json:"qr"`
	QRImage   string `json:"qrImage"`
}

// SendOutcome is the transport's answer to one message send. Success
// mirrors the HTTP outcome; RawBody keeps the verbatim response for audit.
type SendOutcome struct {
	Success    bool
	StatusCode int
	MessageID  string
	RawBody    string
}

// Client is the control API surface consumed by the session manager and
// the dispatcher.
type Client interface {
	Health(ctx context.Context) (*Health, error)
	SessionStatus(ctx context.Context) (*SessionStatus, error)
	SessionQR(ctx context.Context) (*QRCode, error)
	StartSession(ctx context.Context) (*SessionStatus, error)
	TerminateSession(ctx context.Context) error
	SendMessage(ctx context.Context, chatID, message string) (*SendOutcome, error)
	CheckNumber(ctx context.Context, phone string) (bool, error)
}
