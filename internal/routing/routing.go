// Package routing decides whether an automated reply is permitted for an
// inbound event, based on the user's handling mode and event freshness.
package routing

import (
	"context"
	"log/slog"
	"time"

	"github.com/hrlighting/linerelay/internal/gas"
	"github.com/hrlighting/linerelay/internal/models"
)

// StalenessThreshold is the maximum age an event may have, relative to the
// local clock, and still receive an automated reply. Older events are
// treated as redeliveries or queued backlog.
const StalenessThreshold = 10 * time.Second

// DefaultRouting is the fail-open routing state used whenever the external
// store cannot answer: automation stays available.
func DefaultRouting(userID string) models.RoutingState {
	return models.RoutingState{
		UserID: userID,
		Mode:   models.ModeAutoAI,
	}
}

// Resolver reads per-user routing state from the external store.
type Resolver struct {
	store gas.Store
}

// NewResolver creates a Resolver backed by the given store client.
func NewResolver(store gas.Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the user's routing state. Any failure (empty user id,
// unconfigured store, network error, malformed or rejected response)
// yields DefaultRouting. The read has no side effects.
func (r *Resolver) Resolve(ctx context.Context, userID string) models.RoutingState {
	if userID == "" {
		return DefaultRouting(userID)
	}
	state, err := r.store.GetLineUserRouting(ctx, userID)
	if err != nil {
		slog.Warn("Resolver.Resolve: routing lookup failed, failing open", "error", err, "user_id", userID)
		return DefaultRouting(userID)
	}
	slog.Debug("Resolver.Resolve: routing resolved", "user_id", userID, "mode", state.Mode,
		"has_last_mode_change", state.HasLastModeChange)
	return state
}

// ShouldAutoReply applies the staleness-gated auto-reply decision rule.
//
// The rule is evaluated in order: a non-automated mode always wins, an
// unverifiable event timestamp is rejected, events older than
// StalenessThreshold are rejected before the mode-change comparison, and an
// event that precedes the last mode change never receives an automated
// reply.
func ShouldAutoReply(state models.RoutingState, eventTimestampMs int64, now time.Time) bool {
	if state.Mode != models.ModeAutoAI {
		return false
	}
	if eventTimestampMs <= 0 {
		return false
	}
	if now.UnixMilli()-eventTimestampMs > StalenessThreshold.Milliseconds() {
		return false
	}
	if state.HasLastModeChange && eventTimestampMs < state.LastModeChangeAtMs {
		return false
	}
	return true
}
