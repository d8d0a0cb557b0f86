package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/bengkelhub/wa-bridge/internal/errors"
	"github.com/bengkelhub/wa-bridge/internal/model"
)

// DefaultTimeout bounds every transport call so a stuck client process
// cannot stall the application.
const DefaultTimeout = 30 * time.Second

// ConfigSource yields the active gateway configuration. The adapter
// resolves it per call so endpoint or credential changes take effect
// without a restart.
type ConfigSource interface {
	GetActive() (*model.GatewayConfig, error)
}

// HTTPClient is the production adapter for the transport control API.
type HTTPClient struct {
	configs ConfigSource
	client  *http.Client
	log     *zap.Logger
}

func NewHTTPClient(configs ConfigSource, log *zap.Logger) *HTTPClient {
	return &HTTPClient{
		configs: configs,
		client:  &http.Client{Timeout: DefaultTimeout},
		log:     log,
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload any) (*http.Response, []byte, error) {
	cfg, err := c.configs.GetActive()
	if err != nil {
		return nil, nil, err
	}
	if cfg == nil {
		return nil, nil, appErrors.NewGatewayDisabled()
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, cfg.Endpoint(path), body)
	if err != nil {
		return nil, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user, pass, ok := cfg.BasicAuth(); ok {
		req.SetBasicAuth(user, pass)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, nil, err
	}
	return resp, raw, nil
}

func (c *HTTPClient) Health(ctx context.Context) (*Health, error) {
	resp, raw, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transport health check returned %d", resp.StatusCode)
	}
	var h Health
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *HTTPClient) SessionStatus(ctx context.Context) (*SessionStatus, error) {
	resp, raw, err := c.do(ctx, http.MethodGet, "/session/status", nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transport session status returned %d", resp.StatusCode)
	}
	var st SessionStatus
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// SessionQR fetches the current pairing QR. The transport answers 404
// while no QR is pending; that maps to Available=false, not an error.
func (c *HTTPClient) SessionQR(ctx context.Context) (*QRCode, error) {
	resp, raw, err := c.do(ctx, http.MethodGet, "/session/qr", nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return &QRCode{Available: false}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transport qr fetch returned %d", resp.StatusCode)
	}
	var qr QRCode
	if err := json.Unmarshal(raw, &qr); err != nil {
		return nil, err
	}
	qr.Available = qr.QR != ""
	return &qr, nil
}

func (c *HTTPClient) StartSession(ctx context.Context) (*SessionStatus, error) {
	resp, raw, err := c.do(ctx, http.MethodPost, "/session/start", nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("transport session start returned %d: %s", resp.StatusCode, string(raw))
	}
	var st SessionStatus
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *HTTPClient) TerminateSession(ctx context.Context) error {
	resp, raw, err := c.do(ctx, http.MethodDelete, "/session/terminate", nil)
	if err != nil {
		return err
	}
	// 404 means no session exists; terminating nothing is fine.
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("transport terminate returned %d: %s", resp.StatusCode, string(raw))
	}
	return nil
}

// SendMessage posts one message to the transport. Non-2xx responses are
// reported through the outcome, not as errors, so the dispatcher can
// persist the body text verbatim.
func (c *HTTPClient) SendMessage(ctx context.Context, chatID, message string) (*SendOutcome, error) {
	resp, raw, err := c.do(ctx, http.MethodPost, "/message/send", map[string]string{
		"phone":   chatID,
		"message": message,
	})
	if err != nil {
		return nil, err
	}

	outcome := &SendOutcome{
		StatusCode: resp.StatusCode,
		RawBody:    string(raw),
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return outcome, nil
	}

	var parsed struct {
		Success   bool   `json:"success"`
		MessageID string `json:"messageId"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		c.log.Warn("unparseable transport send response", zap.Error(err))
		return outcome, nil
	}
	outcome.Success = parsed.Success
	outcome.MessageID = parsed.MessageID
	return outcome, nil
}

func (c *HTTPClient) CheckNumber(ctx context.Context, phone string) (bool, error) {
	resp, raw, err := c.do(ctx, http.MethodPost, "/number/check", map[string]string{"phone": phone})
	if err != nil {
		return false, err
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("transport number check returned %d", resp.StatusCode)
	}
	var parsed struct {
		Success      bool `json:"success"`
		IsRegistered bool `json:"isRegistered"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return false, err
	}
	return parsed.IsRegistered, nil
}

var _ Client = (*HTTPClient)(nil)
