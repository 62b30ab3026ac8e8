package routing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hrlighting/linerelay/internal/gas"
	"github.com/hrlighting/linerelay/internal/models"
)

func TestShouldAutoReply_ManualModes(t *testing.T) {
	now := time.Now()
	fresh := now.UnixMilli() - 1000

	for _, mode := range []models.Mode{models.ModeOwnerManual, models.ModeStaffManual} {
		state := models.RoutingState{Mode: mode}
		if ShouldAutoReply(state, fresh, now) {
			t.Errorf("mode %s: expected false regardless of timestamps", mode)
		}
		// Even with a mode change far in the past the answer stays false.
		state.HasLastModeChange = true
		state.LastModeChangeAtMs = fresh - 100000
		if ShouldAutoReply(state, fresh, now) {
			t.Errorf("mode %s with old mode change: expected false", mode)
		}
	}
}

func TestShouldAutoReply_MissingTimestamp(t *testing.T) {
	now := time.Now()
	state := models.RoutingState{Mode: models.ModeAutoAI}
	if ShouldAutoReply(state, 0, now) {
		t.Error("expected false for absent event timestamp")
	}
	if ShouldAutoReply(state, -5, now) {
		t.Error("expected false for negative event timestamp")
	}
}

func TestShouldAutoReply_StaleEvent(t *testing.T) {
	now := time.Now()
	state := models.RoutingState{Mode: models.ModeAutoAI}
	if ShouldAutoReply(state, now.UnixMilli()-15000, now) {
		t.Error("expected false for event 15s old (over 10s threshold)")
	}
}

func TestShouldAutoReply_FreshEvent(t *testing.T) {
	now := time.Now()
	state := models.RoutingState{Mode: models.ModeAutoAI}
	if !ShouldAutoReply(state, now.UnixMilli()-2000, now) {
		t.Error("expected true for fresh event with no mode change recorded")
	}
}

func TestShouldAutoReply_EventPrecedesModeChange(t *testing.T) {
	now := time.Now()
	eventTs := now.UnixMilli() - 2000
	state := models.RoutingState{
		Mode:               models.ModeAutoAI,
		HasLastModeChange:  true,
		LastModeChangeAtMs: eventTs + 1,
	}
	if ShouldAutoReply(state, eventTs, now) {
		t.Error("expected false: event chronologically precedes the mode switch-back")
	}
}

func TestShouldAutoReply_EventAfterModeChange(t *testing.T) {
	now := time.Now()
	eventTs := now.UnixMilli() - 2000
	state := models.RoutingState{
		Mode:               models.ModeAutoAI,
		HasLastModeChange:  true,
		LastModeChangeAtMs: eventTs - 1,
	}
	if !ShouldAutoReply(state, eventTs, now) {
		t.Error("expected true: fresh event after the last mode change")
	}
}

// stubStore implements the single read the resolver needs.
type stubStore struct {
	gas.Store
	state models.RoutingState
	err   error
}

func (s *stubStore) GetLineUserRouting(ctx context.Context, userID string) (models.RoutingState, error) {
	return s.state, s.err
}

func TestResolve_FailsOpenOnError(t *testing.T) {
	r := NewResolver(&stubStore{err: errors.New("store unreachable")})
	state := r.Resolve(context.Background(), "U123")
	if state.Mode != models.ModeAutoAI {
		t.Errorf("expected fail-open mode auto_ai, got %s", state.Mode)
	}
	if state.HasLastModeChange {
		t.Error("expected absent last mode change on fail-open default")
	}
}

func TestResolve_EmptyUserID(t *testing.T) {
	r := NewResolver(&stubStore{state: models.RoutingState{Mode: models.ModeOwnerManual}})
	state := r.Resolve(context.Background(), "")
	if state.Mode != models.ModeAutoAI {
		t.Errorf("expected default for empty user id, got %s", state.Mode)
	}
}

func TestResolve_PassesThroughStoreState(t *testing.T) {
	want := models.RoutingState{
		UserID:             "U123",
		Mode:               models.ModeStaffManual,
		OwnerAgentID:       "agent-7",
		LastModeChangeAtMs: 1700000000000,
		HasLastModeChange:  true,
	}
	r := NewResolver(&stubStore{state: want})
	got := r.Resolve(context.Background(), "U123")
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}
