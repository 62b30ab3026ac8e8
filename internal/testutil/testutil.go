// Package testutil provides common test utilities and helpers for linerelay tests.
package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/hrlighting/linerelay/internal/gas"
	"github.com/hrlighting/linerelay/internal/models"
)

// AssertHTTPStatus checks the HTTP status code and fails the test if it doesn't match.
func AssertHTTPStatus(t *testing.T, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// MockStore is a configurable in-memory gas.Store for tests. Zero value is
// usable: every call succeeds with zero-value results and is recorded.
type MockStore struct {
	mu sync.Mutex

	RoutingResult models.RoutingState
	RoutingErr    error

	LogErr error

	BindErr   error
	CreateErr error

	ConfirmAlready bool
	ConfirmErr     error
	// ConfirmFunc, when set, overrides the fixed Confirm results per call.
	ConfirmFunc func(reservationID string) (bool, error)

	ResolveResult gas.CustomerRef
	ResolveErr    error

	LoggedRecords []models.ActivityRecord
	BindCalls     []string
	Reservations  []gas.Reservation
	ConfirmCalls  []string
}

var _ gas.Store = (*MockStore)(nil)

func (m *MockStore) GetLineUserRouting(ctx context.Context, userID string) (models.RoutingState, error) {
	state := m.RoutingResult
	state.Mode = models.CoerceMode(string(state.Mode))
	return state, m.RoutingErr
}

func (m *MockStore) LogMessage(ctx context.Context, rec models.ActivityRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoggedRecords = append(m.LoggedRecords, rec)
	return m.LogErr
}

func (m *MockStore) BindLineCustomer(ctx context.Context, userID, phone, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BindCalls = append(m.BindCalls, userID+"|"+phone+"|"+name)
	return m.BindErr
}

func (m *MockStore) CreateReservation(ctx context.Context, res gas.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reservations = append(m.Reservations, res)
	return m.CreateErr
}

func (m *MockStore) ConfirmBooking(ctx context.Context, reservationID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ConfirmCalls = append(m.ConfirmCalls, reservationID)
	if m.ConfirmFunc != nil {
		return m.ConfirmFunc(reservationID)
	}
	return m.ConfirmAlready, m.ConfirmErr
}

func (m *MockStore) ResolveLineCustomer(ctx context.Context, userID string) (gas.CustomerRef, error) {
	return m.ResolveResult, m.ResolveErr
}

// MockReplier records replies for tests.
type MockReplier struct {
	mu      sync.Mutex
	Replies []string
	Tokens  []string
	Err     error
}

func (m *MockReplier) ReplyText(replyToken, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Tokens = append(m.Tokens, replyToken)
	m.Replies = append(m.Replies, text)
	return m.Err
}
