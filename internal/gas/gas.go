// Package gas implements the client for the spreadsheet-backed external
// store, a Google Apps Script web app addressed by a single endpoint URL.
//
// Every call posts a JSON envelope {action, body}; the store answers with a
// JSON object carrying at least an "ok" boolean. All calls are bounded by
// short timeouts so a stalled store can never hang message processing.
package gas

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hrlighting/linerelay/internal/models"
)

// Action discriminators understood by the store's doPost dispatcher.
const (
	ActionLineLog             = "lineLog"
	ActionGetLineUserRouting  = "getLineUserRouting"
	ActionResolveLineCustomer = "resolveLineCustomer"
	ActionBindLineCustomer    = "bindLineCustomer"
	ActionReservationsCreate  = "reservationsCreate"
	ActionBookingConfirm      = "bookingConfirmByReservationId"
)

// DefaultTimeout bounds every store call unless overridden per call site.
const DefaultTimeout = 5 * time.Second

// ErrNotConfigured is returned when no endpoint URL was provided.
// Call sites treat it as a soft failure.
var ErrNotConfigured = errors.New("external store endpoint not configured")

// ErrStoreRejected is returned when the store answered ok=false.
var ErrStoreRejected = errors.New("external store reported failure")

// Store is the interface consumed by the rest of the relay (for production
// and testing).
type Store interface {
	GetLineUserRouting(ctx context.Context, userID string) (models.RoutingState, error)
	LogMessage(ctx context.Context, rec models.ActivityRecord) error
	BindLineCustomer(ctx context.Context, userID, phone, name string) error
	CreateReservation(ctx context.Context, res Reservation) error
	ConfirmBooking(ctx context.Context, reservationID string) (alreadyConfirmed bool, err error)
	ResolveLineCustomer(ctx context.Context, userID string) (CustomerRef, error)
}

// Reservation is the payload for a reservationsCreate call.
type Reservation struct {
	UserID string `json:"line_user_id"`
	Date   string `json:"date"`
	Time   string `json:"time"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Model  string `json:"model"`
}

// CustomerRef identifies a bound customer row in the store.
type CustomerRef struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
}

// Opts holds configuration options for the store client.
type Opts struct {
	Endpoint   string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Option defines a configuration option for the store client.
type Option func(*Opts)

// WithEndpoint sets the web app endpoint URL.
func WithEndpoint(url string) Option {
	return func(o *Opts) {
		o.Endpoint = url
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Opts) {
		o.Timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client, used by tests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *Opts) {
		o.HTTPClient = c
	}
}

// Client talks to the external store. A Client with an empty endpoint is
// valid; every call then fails soft with ErrNotConfigured.
type Client struct {
	endpoint string
	timeout  time.Duration
	http     *http.Client
}

var _ Store = (*Client)(nil)

// NewClient creates a new store client, applying any provided options.
func NewClient(opts ...Option) *Client {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Endpoint == "" {
		slog.Warn("gas.NewClient: endpoint not configured, store calls will be skipped")
	}
	return &Client{endpoint: cfg.Endpoint, timeout: cfg.Timeout, http: cfg.HTTPClient}
}

// Configured reports whether an endpoint URL was provided.
func (c *Client) Configured() bool {
	return c.endpoint != ""
}

// envelope is the canonical request wrapper the store's doPost expects.
type envelope struct {
	Action string      `json:"action"`
	Body   interface{} `json:"body"`
}

// storeResponse is the common response shape; action-specific fields are
// kept in Raw for callers that need them.
type storeResponse struct {
	OK  bool            `json:"ok"`
	Raw json.RawMessage `json:"-"`
}

// call posts one {action, body} envelope and decodes the common response.
func (c *Client) call(ctx context.Context, action string, body interface{}) (storeResponse, error) {
	if c.endpoint == "" {
		return storeResponse{}, ErrNotConfigured
	}

	payload, err := json.Marshal(envelope{Action: action, Body: body})
	if err != nil {
		return storeResponse{}, fmt.Errorf("marshal %s request: %w", action, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return storeResponse{}, fmt.Errorf("build %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return storeResponse{}, fmt.Errorf("%s call failed: %w", action, err)
	}
	defer resp.Body.Close()

	// GAS web apps answer 200 through redirects; treat anything else as a failure.
	if resp.StatusCode != http.StatusOK {
		return storeResponse{}, fmt.Errorf("%s returned status %d", action, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return storeResponse{}, fmt.Errorf("read %s response: %w", action, err)
	}

	var sr storeResponse
	if err := json.Unmarshal(raw, &sr); err != nil {
		return storeResponse{}, fmt.Errorf("decode %s response: %w", action, err)
	}
	sr.Raw = raw
	slog.Debug("gas call completed", "action", action, "ok", sr.OK)
	return sr, nil
}

// GetLineUserRouting reads the current handling mode for a user. This is a
// pure read; callers apply their own fail-open default on any error.
func (c *Client) GetLineUserRouting(ctx context.Context, userID string) (models.RoutingState, error) {
	if userID == "" {
		return models.RoutingState{}, models.ErrEmptyUserID
	}
	sr, err := c.call(ctx, ActionGetLineUserRouting, map[string]string{"line_user_id": userID})
	if err != nil {
		return models.RoutingState{}, err
	}
	if !sr.OK {
		return models.RoutingState{}, ErrStoreRejected
	}

	var parsed struct {
		Routing struct {
			Mode               string `json:"mode"`
			OwnerAgentID       string `json:"owner_agent_id"`
			LastModeChangeAtMs *int64 `json:"last_mode_change_at_ms"`
		} `json:"routing"`
	}
	if err := json.Unmarshal(sr.Raw, &parsed); err != nil {
		return models.RoutingState{}, fmt.Errorf("decode routing payload: %w", err)
	}

	state := models.RoutingState{
		UserID:       userID,
		Mode:         models.CoerceMode(parsed.Routing.Mode),
		OwnerAgentID: parsed.Routing.OwnerAgentID,
	}
	if parsed.Routing.LastModeChangeAtMs != nil {
		state.LastModeChangeAtMs = *parsed.Routing.LastModeChangeAtMs
		state.HasLastModeChange = true
	}
	return state, nil
}

// LogMessage forwards one activity record to the store's message log.
func (c *Client) LogMessage(ctx context.Context, rec models.ActivityRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	sr, err := c.call(ctx, ActionLineLog, rec)
	if err != nil {
		return err
	}
	if !sr.OK {
		return ErrStoreRejected
	}
	return nil
}

// BindLineCustomer associates a LINE user with a customer row by phone.
func (c *Client) BindLineCustomer(ctx context.Context, userID, phone, name string) error {
	body := map[string]string{"line_user_id": userID, "phone": phone, "name": name}
	sr, err := c.call(ctx, ActionBindLineCustomer, body)
	if err != nil {
		return err
	}
	if !sr.OK {
		return ErrStoreRejected
	}
	return nil
}

// CreateReservation creates one reservation record.
func (c *Client) CreateReservation(ctx context.Context, res Reservation) error {
	sr, err := c.call(ctx, ActionReservationsCreate, res)
	if err != nil {
		return err
	}
	if !sr.OK {
		return ErrStoreRejected
	}
	return nil
}

// ConfirmBooking marks a reservation confirmed. alreadyConfirmed reports
// that the store had confirmed it before this call, which callers use to
// stay silent on repeated button taps.
func (c *Client) ConfirmBooking(ctx context.Context, reservationID string) (bool, error) {
	sr, err := c.call(ctx, ActionBookingConfirm, map[string]string{"reservation_id": reservationID})
	if err != nil {
		return false, err
	}

	var parsed struct {
		AlreadyConfirmed bool `json:"alreadyConfirmed"`
	}
	if err := json.Unmarshal(sr.Raw, &parsed); err != nil {
		return false, fmt.Errorf("decode confirm payload: %w", err)
	}
	if !sr.OK {
		return parsed.AlreadyConfirmed, ErrStoreRejected
	}
	return parsed.AlreadyConfirmed, nil
}

// ResolveLineCustomer looks up the customer bound to a LINE user.
func (c *Client) ResolveLineCustomer(ctx context.Context, userID string) (CustomerRef, error) {
	if userID == "" {
		return CustomerRef{}, models.ErrEmptyUserID
	}
	sr, err := c.call(ctx, ActionResolveLineCustomer, map[string]string{"line_user_id": userID})
	if err != nil {
		return CustomerRef{}, err
	}
	if !sr.OK {
		return CustomerRef{}, ErrStoreRejected
	}

	var parsed struct {
		Customer CustomerRef `json:"customer"`
	}
	if err := json.Unmarshal(sr.Raw, &parsed); err != nil {
		return CustomerRef{}, fmt.Errorf("decode customer payload: %w", err)
	}
	return parsed.Customer, nil
}
