package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"

	"github.com/hrlighting/linerelay/internal/models"
)

// Postback replies.
const (
	msgBookingConfirmed = "已經幫你確認預約囉，到時候見！"
	msgConfirmEscalate  = "這筆確認好像卡住了，小潔先請店裡的人幫你處理，稍等一下喔！"
)

// postbackParser attempts to extract a reservation id from one historical
// payload encoding, returning "" when the payload does not match.
type postbackParser func(data string) string

// postbackParsers is the ordered list of encodings tried against a postback
// payload; first success wins. Append here to support a new encoding.
var postbackParsers = []postbackParser{
	parsePipeTag,
	parseQueryString,
	parseJSONPayload,
}

// ParseReservationID extracts a reservation id from a postback payload,
// trying each known encoding in order. An empty result means the postback
// is unrelated to reservation confirmation.
func ParseReservationID(data string) string {
	for _, parse := range postbackParsers {
		if id := parse(data); id != "" {
			return id
		}
	}
	return ""
}

// parsePipeTag handles the oldest encoding: "confirm|<reservation id>".
func parsePipeTag(data string) string {
	rest, ok := strings.CutPrefix(data, "confirm|")
	if !ok {
		return ""
	}
	return strings.TrimSpace(rest)
}

// parseQueryString handles "action=confirm_booking&reservation_id=<id>".
func parseQueryString(data string) string {
	values, err := url.ParseQuery(data)
	if err != nil {
		return ""
	}
	action := values.Get("action")
	if action != "confirm" && action != "confirm_booking" {
		return ""
	}
	return values.Get("reservation_id")
}

// parseJSONPayload handles the embedded structured object encoding:
// {"action":"confirm","reservationId":"<id>"}.
func parseJSONPayload(data string) string {
	var payload struct {
		Action         string `json:"action"`
		ReservationID  string `json:"reservationId"`
		ReservationID2 string `json:"reservation_id"`
	}
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return ""
	}
	if payload.Action != "confirm" && payload.Action != "confirm_booking" {
		return ""
	}
	if payload.ReservationID != "" {
		return payload.ReservationID
	}
	return payload.ReservationID2
}

// handlePostback logs the button press, marks the reservation confirmed in
// the external store, and replies idempotently: a repeat tap on an
// already-confirmed reservation gets no reply at all.
func (s *Server) handlePostback(ctx context.Context, ev models.CanonicalEvent, traceID string) {
	s.activity.LogEvent(ctx, ev, models.SenderUser, ev.PostbackData)

	reservationID := ParseReservationID(ev.PostbackData)
	if reservationID == "" {
		slog.Debug("Server.handlePostback: no reservation id in payload, ignoring", "trace_id", traceID)
		return
	}

	alreadyConfirmed, err := s.gasStore.ConfirmBooking(ctx, reservationID)
	if alreadyConfirmed {
		slog.Info("Server.handlePostback: reservation already confirmed, staying silent",
			"trace_id", traceID, "reservation_id", reservationID)
		return
	}
	if err != nil {
		slog.Error("Server.handlePostback: confirm failed, escalating", "error", err,
			"trace_id", traceID, "reservation_id", reservationID)
		s.sendReply(ctx, ev, msgConfirmEscalate)
		return
	}

	slog.Info("Server.handlePostback: reservation confirmed", "trace_id", traceID, "reservation_id", reservationID)
	s.sendReply(ctx, ev, msgBookingConfirmed)
}
