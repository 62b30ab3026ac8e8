package line

import (
	"strings"
	"testing"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/hrlighting/linerelay/internal/models"
)

func TestIsVerificationToken(t *testing.T) {
	if !IsVerificationToken(strings.Repeat("0", 32)) {
		t.Error("all-zeros token must be recognized")
	}
	if !IsVerificationToken(strings.Repeat("f", 32)) {
		t.Error("all-fs token must be recognized")
	}
	if IsVerificationToken("abc123") {
		t.Error("ordinary token must not be recognized")
	}
}

func TestNormalize_TextMessage(t *testing.T) {
	ev, ok := Normalize(webhook.MessageEvent{
		ReplyToken: "rtok",
		Timestamp:  1700000000123,
		Source:     webhook.UserSource{UserId: "U1"},
		Message:    webhook.TextMessageContent{Id: "m1", Text: "請問尾燈"},
	})
	if !ok {
		t.Fatal("expected text message to normalize")
	}
	want := models.CanonicalEvent{
		Kind:        models.EventKindText,
		UserID:      "U1",
		MessageID:   "m1",
		Text:        "請問尾燈",
		TimestampMs: 1700000000123,
		ReplyToken:  "rtok",
	}
	if ev != want {
		t.Errorf("expected %+v, got %+v", want, ev)
	}
}

func TestNormalize_StickerMessage(t *testing.T) {
	ev, ok := Normalize(webhook.MessageEvent{
		ReplyToken: "rtok",
		Timestamp:  1700000000123,
		Source:     webhook.UserSource{UserId: "U1"},
		Message:    webhook.StickerMessageContent{Id: "m2", PackageId: "11537", StickerId: "52002734"},
	})
	if !ok {
		t.Fatal("expected sticker message to normalize")
	}
	if ev.Kind != models.EventKindSticker || ev.StickerPackageID != "11537" || ev.StickerID != "52002734" {
		t.Errorf("unexpected sticker event: %+v", ev)
	}
}

func TestNormalize_Postback(t *testing.T) {
	ev, ok := Normalize(webhook.PostbackEvent{
		ReplyToken: "rtok",
		Timestamp:  1700000000123,
		Source:     webhook.UserSource{UserId: "U1"},
		Postback:   &webhook.PostbackContent{Data: "confirm|R42"},
	})
	if !ok {
		t.Fatal("expected postback to normalize")
	}
	if ev.Kind != models.EventKindPostback || ev.PostbackData != "confirm|R42" {
		t.Errorf("unexpected postback event: %+v", ev)
	}
}

func TestNormalize_MissingSourceDegrades(t *testing.T) {
	ev, ok := Normalize(webhook.MessageEvent{
		ReplyToken: "rtok",
		Message:    webhook.TextMessageContent{Id: "m1", Text: "hi"},
	})
	if !ok {
		t.Fatal("a missing source must not reject the event")
	}
	if ev.UserID != "" {
		t.Errorf("expected empty user id fallback, got %q", ev.UserID)
	}
}

func TestNormalize_UnhandledKinds(t *testing.T) {
	if _, ok := Normalize(webhook.FollowEvent{}); ok {
		t.Error("follow events are not handled")
	}
	if _, ok := Normalize(webhook.MessageEvent{Message: webhook.ImageMessageContent{Id: "m3"}}); ok {
		t.Error("image messages are not handled")
	}
}

func TestFormatTimestamp(t *testing.T) {
	got := FormatTimestamp(1700000000123)
	want := time.UnixMilli(1700000000123).UTC().Format(time.RFC3339)
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestFormatTimestamp_FallsBackToNow(t *testing.T) {
	before := time.Now().UTC().Add(-time.Second)
	got, err := time.Parse(time.RFC3339, FormatTimestamp(0))
	if err != nil {
		t.Fatalf("fallback is not RFC3339: %v", err)
	}
	if got.Before(before) || got.After(time.Now().UTC().Add(time.Second)) {
		t.Errorf("fallback timestamp not near current time: %s", got)
	}
}
