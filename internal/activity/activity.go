// Package activity formats and forwards conversation activity records to
// the external store. Logging is diagnostic-only: it must never block or
// fail the user-facing reply path.
package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hrlighting/linerelay/internal/gas"
	"github.com/hrlighting/linerelay/internal/line"
	"github.com/hrlighting/linerelay/internal/models"
	"github.com/hrlighting/linerelay/internal/store"
)

// LogTimeout bounds the forwarding call; the store write happens within the
// request but must stay cheap.
const LogTimeout = 2 * time.Second

// Logger forwards activity records, journaling event ids locally first.
type Logger struct {
	store   gas.Store
	journal store.Journal
}

// NewLogger creates an activity logger. journal may be nil.
func NewLogger(gasStore gas.Store, journal store.Journal) *Logger {
	return &Logger{store: gasStore, journal: journal}
}

// BuildRecord formats a canonical event plus sender role into an
// ActivityRecord. text overrides the event's own text, which lets callers
// log the bot's reply against the same event.
func BuildRecord(ev models.CanonicalEvent, sender models.Sender, text string) models.ActivityRecord {
	rec := models.ActivityRecord{
		EventID:   models.EventID(ev.MessageID, sender),
		UserID:    ev.UserID,
		Type:      string(ev.Kind),
		Text:      text,
		Sender:    sender,
		Timestamp: line.FormatTimestamp(ev.TimestampMs),
	}
	if ev.Kind == models.EventKindSticker {
		rec.StickerPackageID = ev.StickerPackageID
		rec.StickerID = ev.StickerID
	}
	if ev.Kind == models.EventKindPostback {
		rec.EventID = SynthesizePostbackID(time.Now())
		rec.Text = ev.PostbackData
	}
	return rec
}

// SynthesizePostbackID builds a time-based event id for postbacks, which
// carry no message id of their own.
func SynthesizePostbackID(now time.Time) string {
	return fmt.Sprintf("pb-%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}

// LogEvent journals and forwards one record. All failures are swallowed
// after logging; the caller's reply path is never affected.
func (l *Logger) LogEvent(ctx context.Context, ev models.CanonicalEvent, sender models.Sender, text string) {
	rec := BuildRecord(ev, sender, text)

	if l.journal != nil && rec.EventID != "" {
		fresh, err := l.journal.Record(rec.EventID, rec.UserID)
		if err != nil {
			slog.Warn("ActivityLogger.LogEvent: journal write failed", "error", err, "event_id", rec.EventID)
		} else if !fresh {
			// Duplicate delivery; still forwarded, the store upserts idempotently.
			slog.Debug("ActivityLogger.LogEvent: duplicate event id", "event_id", rec.EventID)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, LogTimeout)
	defer cancel()
	if err := l.store.LogMessage(ctx, rec); err != nil {
		slog.Warn("ActivityLogger.LogEvent: forward failed", "error", err,
			"event_id", rec.EventID, "user_id", rec.UserID, "sender", rec.Sender)
	}
}
