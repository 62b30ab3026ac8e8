package line

import (
	"log/slog"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/hrlighting/linerelay/internal/models"
)

// Normalize converts a raw webhook event into a CanonicalEvent.
// It returns ok=false for event kinds the relay does not handle.
//
// Extraction is defensive throughout: a payload shape the SDK did not fill
// in as expected degrades to an empty field rather than failing the whole
// delivery.
func Normalize(event webhook.EventInterface) (models.CanonicalEvent, bool) {
	switch e := event.(type) {
	case webhook.MessageEvent:
		ce := models.CanonicalEvent{
			UserID:      userIDFromSource(e.Source),
			TimestampMs: e.Timestamp,
			ReplyToken:  e.ReplyToken,
		}
		switch m := e.Message.(type) {
		case webhook.TextMessageContent:
			ce.Kind = models.EventKindText
			ce.MessageID = m.Id
			ce.Text = m.Text
		case webhook.StickerMessageContent:
			ce.Kind = models.EventKindSticker
			ce.MessageID = m.Id
			ce.StickerPackageID = m.PackageId
			ce.StickerID = m.StickerId
		default:
			slog.Debug("Normalize: unhandled message content type", "user_id", ce.UserID)
			return models.CanonicalEvent{}, false
		}
		return ce, true
	case webhook.PostbackEvent:
		ce := models.CanonicalEvent{
			Kind:        models.EventKindPostback,
			UserID:      userIDFromSource(e.Source),
			TimestampMs: e.Timestamp,
			ReplyToken:  e.ReplyToken,
		}
		if e.Postback != nil {
			ce.PostbackData = e.Postback.Data
		}
		return ce, true
	default:
		return models.CanonicalEvent{}, false
	}
}

// userIDFromSource pulls the user id out of a webhook source, falling back
// to an empty string when the source shape is unexpected.
func userIDFromSource(source webhook.SourceInterface) string {
	switch s := source.(type) {
	case webhook.UserSource:
		return s.UserId
	case *webhook.UserSource:
		if s != nil {
			return s.UserId
		}
	case webhook.GroupSource:
		return s.UserId
	case webhook.RoomSource:
		return s.UserId
	}
	slog.Warn("userIDFromSource: unexpected source shape, using empty user id")
	return ""
}

// FormatTimestamp converts a millisecond epoch timestamp to ISO-8601 UTC.
// Non-positive input substitutes the current UTC time so logging never
// blocks on a malformed timestamp.
func FormatTimestamp(ms int64) string {
	if ms <= 0 {
		return time.Now().UTC().Format(time.RFC3339)
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
