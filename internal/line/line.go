// Package line wraps the LINE Messaging API client for linerelay.
//
// It provides reply sending and normalization of inbound webhook events
// into the canonical internal event shape.
package line

import (
	"fmt"
	"log/slog"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// Verification reply tokens delivered by the LINE platform's webhook
// self-test. Replying to these is always rejected, so callers must skip
// them entirely.
const (
	verifyTokenZeros = "00000000000000000000000000000000"
	verifyTokenFs    = "ffffffffffffffffffffffffffffffff"
)

// IsVerificationToken reports whether a reply token belongs to a platform
// verification delivery that must never receive an actual reply attempt.
func IsVerificationToken(token string) bool {
	return token == verifyTokenZeros || token == verifyTokenFs
}

// Replier is an interface for sending replies (for production and testing).
type Replier interface {
	ReplyText(replyToken, text string) error
}

// Opts holds configuration options for the LINE client.
type Opts struct {
	ChannelToken string // LINE channel access token (required)
	Endpoint     string // override API endpoint, used by tests
}

// Option defines a configuration option for the LINE client.
type Option func(*Opts)

// WithChannelToken sets the LINE channel access token.
func WithChannelToken(token string) Option {
	return func(o *Opts) {
		o.ChannelToken = token
	}
}

// WithEndpoint overrides the LINE API endpoint.
func WithEndpoint(endpoint string) Option {
	return func(o *Opts) {
		o.Endpoint = endpoint
	}
}

// Client wraps the generated Messaging API client for modular use.
type Client struct {
	api *messaging_api.MessagingApiAPI
}

var _ Replier = (*Client)(nil)

// NewClient creates a new LINE client, applying any provided options.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.ChannelToken == "" {
		return nil, fmt.Errorf("LINE channel access token not set")
	}

	var apiOpts []messaging_api.MessagingApiAPIOption
	if cfg.Endpoint != "" {
		apiOpts = append(apiOpts, messaging_api.WithEndpoint(cfg.Endpoint))
	}
	api, err := messaging_api.NewMessagingApiAPI(cfg.ChannelToken, apiOpts...)
	if err != nil {
		slog.Error("LINE NewClient failed to initialize Messaging API", "error", err)
		return nil, fmt.Errorf("failed to initialize LINE messaging API: %w", err)
	}
	slog.Debug("LINE NewClient initialized", "endpoint_override", cfg.Endpoint != "")
	return &Client{api: api}, nil
}

// ReplyText sends a single text reply addressed to the given reply token.
// The token is single-use; the platform rejects reuse, and callers must not
// retry on failure.
func (c *Client) ReplyText(replyToken, text string) error {
	if replyToken == "" {
		return fmt.Errorf("reply token is empty")
	}
	if IsVerificationToken(replyToken) {
		slog.Debug("LINE ReplyText skipping verification token")
		return nil
	}
	_, err := c.api.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages: []messaging_api.MessageInterface{
			messaging_api.TextMessage{Text: text},
		},
	})
	if err != nil {
		slog.Error("LINE ReplyText failed", "error", err)
		return fmt.Errorf("reply failed: %w", err)
	}
	return nil
}
