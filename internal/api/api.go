// Package api provides the HTTP server and webhook handling for linerelay.
//
// It exposes the LINE webhook endpoint, verifies delivery signatures via
// the SDK, and drives the per-event pipeline: normalize, log, reservation
// flow or routing-gated auto-reply, reply, log.
package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hrlighting/linerelay/internal/activity"
	"github.com/hrlighting/linerelay/internal/flow"
	"github.com/hrlighting/linerelay/internal/gas"
	"github.com/hrlighting/linerelay/internal/genai"
	"github.com/hrlighting/linerelay/internal/line"
	"github.com/hrlighting/linerelay/internal/routing"
	"github.com/hrlighting/linerelay/internal/store"
)

// DefaultAddr is the default listen address.
const DefaultAddr = ":5000"

// Opts holds configuration options for the API server.
type Opts struct {
	Addr          string
	ChannelSecret string
	JournalDSN    string
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) {
		o.Addr = addr
	}
}

// WithChannelSecret sets the LINE channel secret used for webhook
// signature verification.
func WithChannelSecret(secret string) Option {
	return func(o *Opts) {
		o.ChannelSecret = secret
	}
}

// WithJournalDSN sets the local activity journal DSN (SQLite path or
// Postgres URL).
func WithJournalDSN(dsn string) Option {
	return func(o *Opts) {
		o.JournalDSN = dsn
	}
}

// Server handles webhook deliveries and wires the relay's collaborators.
type Server struct {
	channelSecret string
	lineClient    line.Replier
	gasStore      gas.Store
	resolver      *routing.Resolver
	replies       *flow.ReplyGenerator
	reservations  *flow.ReservationFlow
	activity      *activity.Logger
}

// NewServer creates a Server from already-constructed collaborators.
// Used directly by tests; production wiring goes through Run.
func NewServer(channelSecret string, lineClient line.Replier, gasStore gas.Store,
	resolver *routing.Resolver, replies *flow.ReplyGenerator,
	reservations *flow.ReservationFlow, activityLogger *activity.Logger) *Server {
	return &Server{
		channelSecret: channelSecret,
		lineClient:    lineClient,
		gasStore:      gasStore,
		resolver:      resolver,
		replies:       replies,
		reservations:  reservations,
		activity:      activityLogger,
	}
}

// Handler returns the HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", s.callbackHandler)
	mux.HandleFunc("/health", s.healthHandler)
	return mux
}

// Run wires all modules from options and serves until the listener fails.
// Missing LINE credentials are a startup failure; everything else degrades.
func Run(lineOpts []line.Option, gasOpts []gas.Option, genaiOpts []genai.Option, apiOpts []Option) error {
	var cfg Opts
	for _, opt := range apiOpts {
		opt(&cfg)
	}
	if cfg.ChannelSecret == "" {
		return fmt.Errorf("LINE channel secret not set")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	lineClient, err := line.NewClient(lineOpts...)
	if err != nil {
		return fmt.Errorf("failed to create LINE client: %w", err)
	}

	gasClient := gas.NewClient(gasOpts...)

	// The completion capability is optional; a nil client degrades to the
	// fixed apology replies.
	var genaiClient genai.ClientInterface
	if cli, err := genai.NewClient(genaiOpts...); err != nil {
		slog.Warn("Run: GenAI client unavailable, auto-replies degrade to apologies", "error", err)
	} else {
		genaiClient = cli
	}

	journal, err := openJournal(cfg.JournalDSN)
	if err != nil {
		return fmt.Errorf("failed to open activity journal: %w", err)
	}

	sessions := flow.NewInMemorySessionStore()
	srv := NewServer(
		cfg.ChannelSecret,
		lineClient,
		gasClient,
		routing.NewResolver(gasClient),
		flow.NewReplyGenerator(genaiClient),
		flow.NewReservationFlow(sessions, gasClient),
		activity.NewLogger(gasClient, journal),
	)

	slog.Info("linerelay API running", "addr", cfg.Addr, "store_configured", gasClient.Configured(), "genai_available", genaiClient != nil)
	return http.ListenAndServe(cfg.Addr, srv.Handler())
}

// openJournal picks a journal backend from the DSN, defaulting to memory.
func openJournal(dsn string) (store.Journal, error) {
	if dsn == "" {
		slog.Debug("openJournal: no DSN provided, using in-memory journal")
		return store.NewInMemoryJournal(), nil
	}
	if store.DetectDSNType(dsn) == "postgres" {
		slog.Debug("openJournal: detected PostgreSQL DSN")
		return store.NewPostgresJournal(store.WithPostgresDSN(dsn))
	}
	slog.Debug("openJournal: detected SQLite DSN", "path", dsn)
	return store.NewSQLiteJournal(store.WithSQLiteDSN(dsn))
}
