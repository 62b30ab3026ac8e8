package models

import "testing"

func TestEventID_Deterministic(t *testing.T) {
	a := EventID("m123", SenderUser)
	b := EventID("m123", SenderUser)
	if a != b {
		t.Errorf("same inputs must yield the same id: %q vs %q", a, b)
	}
	if a != "m123:user" {
		t.Errorf("unexpected id format: %q", a)
	}
}

func TestEventID_SenderDisambiguates(t *testing.T) {
	if EventID("m123", SenderUser) == EventID("m123", SenderBot) {
		t.Error("different senders for the same message id must yield different ids")
	}
}

func TestEventID_EmptyMessageID(t *testing.T) {
	if got := EventID("", SenderBot); got != "" {
		t.Errorf("expected empty id without a message id, got %q", got)
	}
}

func TestCoerceMode(t *testing.T) {
	cases := map[string]Mode{
		"auto_ai":      ModeAutoAI,
		"owner_manual": ModeOwnerManual,
		"staff_manual": ModeStaffManual,
		"":             ModeAutoAI,
		"paused":       ModeAutoAI,
		"AUTO_AI":      ModeAutoAI,
	}
	for input, want := range cases {
		if got := CoerceMode(input); got != want {
			t.Errorf("CoerceMode(%q): expected %s, got %s", input, want, got)
		}
	}
}

func TestCanonicalEventValidate(t *testing.T) {
	ev := CanonicalEvent{Kind: EventKindText, UserID: "U1"}
	if err := ev.Validate(); err != nil {
		t.Errorf("expected valid event, got %v", err)
	}
	ev.Kind = "video"
	if err := ev.Validate(); err != ErrInvalidEventKind {
		t.Errorf("expected ErrInvalidEventKind, got %v", err)
	}
}

func TestActivityRecordValidate(t *testing.T) {
	rec := ActivityRecord{Type: "text", Sender: SenderUser}
	if err := rec.Validate(); err != nil {
		t.Errorf("expected valid record, got %v", err)
	}
	rec.Type = ""
	if err := rec.Validate(); err != ErrEmptyActivityType {
		t.Errorf("expected ErrEmptyActivityType, got %v", err)
	}
	rec.Type = "text"
	rec.Sender = "system"
	if err := rec.Validate(); err == nil {
		t.Error("expected error for unknown sender")
	}
}

func TestReservationSessionInProgress(t *testing.T) {
	var s ReservationSession
	if s.InProgress() {
		t.Error("zero-value session must not be in progress")
	}
	s.Step = StepIdle
	if s.InProgress() {
		t.Error("idle session must not be in progress")
	}
	s.Step = StepWaitingDate
	if !s.InProgress() {
		t.Error("waiting_date session must be in progress")
	}
}
