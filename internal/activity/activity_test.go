package activity

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hrlighting/linerelay/internal/models"
	"github.com/hrlighting/linerelay/internal/store"
	"github.com/hrlighting/linerelay/internal/testutil"
)

func textEvent() models.CanonicalEvent {
	return models.CanonicalEvent{
		Kind:        models.EventKindText,
		UserID:      "U1",
		MessageID:   "m1",
		Text:        "請問尾燈",
		TimestampMs: 1700000000123,
		ReplyToken:  "rtok",
	}
}

func TestBuildRecord_Text(t *testing.T) {
	rec := BuildRecord(textEvent(), models.SenderUser, "請問尾燈")
	if rec.EventID != "m1:user" {
		t.Errorf("expected event id m1:user, got %q", rec.EventID)
	}
	if rec.Type != "text" || rec.Text != "請問尾燈" || rec.UserID != "U1" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if _, err := time.Parse(time.RFC3339, rec.Timestamp); err != nil {
		t.Errorf("timestamp not RFC3339: %q", rec.Timestamp)
	}
}

func TestBuildRecord_BotReplySharesMessageID(t *testing.T) {
	userRec := BuildRecord(textEvent(), models.SenderUser, "請問尾燈")
	botRec := BuildRecord(textEvent(), models.SenderBot, "歡迎詢問！")
	if userRec.EventID == botRec.EventID {
		t.Error("user and bot records for the same message must have distinct event ids")
	}
	if botRec.EventID != "m1:bot" {
		t.Errorf("expected m1:bot, got %q", botRec.EventID)
	}
	if botRec.Text != "歡迎詢問！" {
		t.Errorf("bot record must carry the reply text, got %q", botRec.Text)
	}
}

func TestBuildRecord_Sticker(t *testing.T) {
	ev := models.CanonicalEvent{
		Kind:             models.EventKindSticker,
		UserID:           "U1",
		MessageID:        "m2",
		StickerPackageID: "11537",
		StickerID:        "52002734",
		TimestampMs:      1700000000123,
	}
	rec := BuildRecord(ev, models.SenderUser, "")
	if rec.StickerPackageID != "11537" || rec.StickerID != "52002734" {
		t.Errorf("sticker ids missing: %+v", rec)
	}
}

func TestBuildRecord_PostbackSynthesizesID(t *testing.T) {
	ev := models.CanonicalEvent{
		Kind:         models.EventKindPostback,
		UserID:       "U1",
		PostbackData: "confirm|R42",
		TimestampMs:  1700000000123,
	}
	rec := BuildRecord(ev, models.SenderUser, "")
	if !strings.HasPrefix(rec.EventID, "pb-") {
		t.Errorf("expected synthesized pb- id, got %q", rec.EventID)
	}
	if rec.Text != "confirm|R42" {
		t.Errorf("postback record must carry the payload, got %q", rec.Text)
	}
}

func TestBuildRecord_NoMessageIDMeansNoDedup(t *testing.T) {
	ev := textEvent()
	ev.MessageID = ""
	rec := BuildRecord(ev, models.SenderUser, "hi")
	if rec.EventID != "" {
		t.Errorf("expected empty event id, got %q", rec.EventID)
	}
}

func TestLogEvent_SwallowsForwardFailure(t *testing.T) {
	mock := &testutil.MockStore{LogErr: errors.New("store down")}
	l := NewLogger(mock, store.NewInMemoryJournal())

	// Must not panic or propagate anything.
	l.LogEvent(context.Background(), textEvent(), models.SenderUser, "hi")
	if len(mock.LoggedRecords) != 1 {
		t.Errorf("expected one forward attempt, got %d", len(mock.LoggedRecords))
	}
}

func TestLogEvent_DuplicateStillForwarded(t *testing.T) {
	mock := &testutil.MockStore{}
	l := NewLogger(mock, store.NewInMemoryJournal())

	l.LogEvent(context.Background(), textEvent(), models.SenderUser, "hi")
	l.LogEvent(context.Background(), textEvent(), models.SenderUser, "hi")

	// The external store owns authoritative idempotency; both deliveries
	// are forwarded.
	if len(mock.LoggedRecords) != 2 {
		t.Errorf("expected both deliveries forwarded, got %d", len(mock.LoggedRecords))
	}
}

func TestLogEvent_NilJournal(t *testing.T) {
	mock := &testutil.MockStore{}
	l := NewLogger(mock, nil)
	l.LogEvent(context.Background(), textEvent(), models.SenderUser, "hi")
	if len(mock.LoggedRecords) != 1 {
		t.Errorf("expected record forwarded without a journal, got %d", len(mock.LoggedRecords))
	}
}
