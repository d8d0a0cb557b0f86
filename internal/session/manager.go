// Package session owns the lifecycle of the single WhatsApp Web session
// behind the transport process.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bengkelhub/wa-bridge/internal/model"
	"github.com/bengkelhub/wa-bridge/internal/repository"
	"github.com/bengkelhub/wa-bridge/internal/transport"
)

// Session states. The machine is disconnected -> qr_ready ->
// authenticated -> ready, with any state falling back to disconnected on
// failure, logout or explicit terminate. qr_ready may re-enter itself when
// the transport rotates the QR before it is scanned.
const (
	StateDisconnected  = "disconnected"
	StateQRReady       = "qr_ready"
	StateAuthenticated = "authenticated"
	StateReady         = "ready"
)

// Status is the manager's non-blocking view of the session.
type Status struct {
	State   string `json:"status"`
	IsReady bool   `json:"isReady"`
	HasQR   bool   `json:"hasQR"`
}

// QRResult wraps a QR fetch. Available is false outside qr_ready; that is
// an expected answer, not an error.
type QRResult struct {
	Available bool   `json:"available"`
	QR        string `json:"qr,omitempty"`
	QRImage   string `json:"qr_image,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Manager tracks the session state machine and mirrors every transition
// into the gateway configuration's connection snapshot so restarts can
// report last-known state.
type Manager struct {
	transport transport.Client
	configs   repository.GatewayConfigRepositoryInterface
	log       *zap.Logger

	mu      sync.Mutex
	state   string
	hasQR   bool
	started bool
}

func NewManager(t transport.Client, configs repository.GatewayConfigRepositoryInterface, log *zap.Logger) *Manager {
	return &Manager{
		transport: t,
		configs:   configs,
		log:       log,
		state:     StateDisconnected,
	}
}

// Start brings the session up. Idempotent: if a session already exists it
// returns the current status instead of creating a second one.
func (m *Manager) Start(ctx context.Context) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return m.statusLocked(), nil
	}

	st, err := m.transport.StartSession(ctx)
	if err != nil {
		m.log.Error("session start failed", zap.Error(err))
		return m.statusLocked(), err
	}
	m.started = true
	m.applyLocked(normalizeState(st), st.HasQR)
	return m.statusLocked(), nil
}

// Status returns the in-memory view without touching the transport.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusLocked()
}

// Refresh polls the transport for the current session state and applies it.
func (m *Manager) Refresh(ctx context.Context) (Status, error) {
	st, err := m.transport.SessionStatus(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.log.Warn("session status poll failed", zap.Error(err))
		m.applyLocked(StateDisconnected, false)
		return m.statusLocked(), err
	}
	m.applyLocked(normalizeState(st), st.HasQR)
	return m.statusLocked(), nil
}

// QR returns the most recent pairing QR while the session is waiting for a
// scan, and a not-available result in every other state.
func (m *Manager) QR(ctx context.Context) (QRResult, error) {
	m.mu.Lock()
	state := m.state
	m.mu.Unlock()

	if state != StateQRReady {
		return QRResult{Available: false, Message: "qr code not available in state " + state}, nil
	}

	qr, err := m.transport.SessionQR(ctx)
	if err != nil {
		return QRResult{Available: false}, err
	}
	if !qr.Available {
		return QRResult{Available: false, Message: "qr code expired or already scanned"}, nil
	}
	return QRResult{Available: true, QR: qr.QR, QRImage: qr.QRImage}, nil
}

// ApplyConnectionEvent folds a transport connection webhook into the state
// machine so the in-memory view tracks transitions the transport reports
// out-of-band, like the QR scan completing. Unknown status strings fall
// back on the connected flag.
func (m *Manager) ApplyConnectionEvent(status string, connected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := status
	switch status {
	case StateDisconnected, StateQRReady, StateAuthenticated, StateReady:
	default:
		if connected {
			next = StateReady
		} else {
			next = StateDisconnected
		}
	}
	if next != StateDisconnected {
		// a live session exists on the transport side even if Start was
		// never called in this process
		m.started = true
	}
	m.applyLocked(next, next == StateQRReady)
}

// Terminate tears the session down. Safe to call when no session exists.
func (m *Manager) Terminate(ctx context.Context) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started && m.state == StateDisconnected {
		return m.statusLocked(), nil // nothing to tear down
	}

	if err := m.transport.TerminateSession(ctx); err != nil {
		m.log.Warn("transport terminate failed, dropping session state anyway", zap.Error(err))
	}
	m.started = false
	m.applyLocked(StateDisconnected, false)
	return m.statusLocked(), nil
}

func (m *Manager) statusLocked() Status {
	return Status{
		State:   m.state,
		IsReady: m.state == StateReady,
		HasQR:   m.hasQR,
	}
}

// applyLocked records a state transition and persists the snapshot.
// Transitions outside the expected machine are logged but still applied:
// the transport is the source of truth for the external session.
func (m *Manager) applyLocked(next string, hasQR bool) {
	if next == m.state && hasQR == m.hasQR {
		return
	}
	if !validTransition(m.state, next) {
		m.log.Warn("unexpected session transition",
			zap.String("from", m.state),
			zap.String("to", next),
		)
	}
	m.log.Info("session state changed",
		zap.String("from", m.state),
		zap.String("to", next),
	)
	m.state = next
	m.hasQR = hasQR
	m.persistLocked()
}

func (m *Manager) persistLocked() {
	cfg, err := m.configs.GetActive()
	if err != nil || cfg == nil {
		return
	}
	snap := model.ConnectionSnapshot{
		Connected:   m.state == StateReady,
		Status:      m.state,
		LastCheckAt: time.Now(),
	}
	if err := m.configs.UpdateConnectionStatus(cfg.ID, snap); err != nil {
		m.log.Warn("failed to persist connection snapshot", zap.Error(err))
	}
}

func validTransition(from, to string) bool {
	if to == StateDisconnected || from == StateDisconnected {
		return true
	}
	switch from {
	case StateQRReady:
		return to == StateQRReady || to == StateAuthenticated
	case StateAuthenticated:
		return to == StateReady
	}
	return false
}

// normalizeState maps a transport status report onto a machine state.
func normalizeState(st *transport.SessionStatus) string {
	switch st.Status {
	case StateDisconnected, StateQRReady, StateAuthenticated, StateReady:
		return st.Status
	}
	if st.IsReady {
		return StateReady
	}
	if st.HasQR {
		return StateQRReady
	}
	return StateDisconnected
}
