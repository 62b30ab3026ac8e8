package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/hrlighting/linerelay/internal/line"
	"github.com/hrlighting/linerelay/internal/models"
	"github.com/hrlighting/linerelay/internal/routing"
)

// callbackHandler receives signed webhook deliveries from the platform.
// Signature verification is delegated to the SDK's ParseRequest; an invalid
// signature rejects the delivery with a client error. Each event is
// processed to completion before the fixed success body is written, and no
// downstream error ever surfaces to the platform.
func (s *Server) callbackHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	cb, err := webhook.ParseRequest(s.channelSecret, r)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			slog.Error("Server.callbackHandler: invalid signature, check channel secret", "error", err)
		} else {
			slog.Warn("Server.callbackHandler: failed to parse webhook body", "error", err)
		}
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	for _, event := range cb.Events {
		s.processEvent(r.Context(), event)
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Server.callbackHandler: failed to write response", "error", err)
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]string{"service": "linerelay"}))
}

// processEvent runs one event through the relay pipeline. Panics and errors
// stay contained here: a malformed event is logged and dropped, never
// propagated to the platform response.
func (s *Server) processEvent(ctx context.Context, event webhook.EventInterface) {
	traceID := uuid.NewString()

	ev, ok := line.Normalize(event)
	if !ok {
		slog.Debug("Server.processEvent: ignoring unhandled event type", "trace_id", traceID)
		return
	}
	slog.Debug("Server.processEvent: event normalized", "trace_id", traceID,
		"kind", ev.Kind, "user_id", ev.UserID, "message_id", ev.MessageID)

	switch ev.Kind {
	case models.EventKindPostback:
		s.handlePostback(ctx, ev, traceID)
	default:
		s.handleMessage(ctx, ev, traceID)
	}
}

// handleMessage implements the text/sticker pipeline: log the user message,
// give the reservation dialogue first claim on text, otherwise resolve
// routing, apply the staleness gate, and auto-reply when permitted.
func (s *Server) handleMessage(ctx context.Context, ev models.CanonicalEvent, traceID string) {
	s.activity.LogEvent(ctx, ev, models.SenderUser, ev.Text)

	if ev.Kind == models.EventKindText {
		if reply, handled := s.reservations.HandleMessage(ctx, ev.UserID, ev.Text); handled {
			slog.Debug("Server.handleMessage: reservation flow handled message", "trace_id", traceID, "user_id", ev.UserID)
			s.sendReply(ctx, ev, reply)
			return
		}
	}

	state := s.resolver.Resolve(ctx, ev.UserID)
	if !routing.ShouldAutoReply(state, ev.TimestampMs, time.Now()) {
		slog.Info("Server.handleMessage: auto-reply suppressed", "trace_id", traceID,
			"user_id", ev.UserID, "mode", state.Mode, "timestamp_ms", ev.TimestampMs)
		return
	}

	reply := s.replies.Generate(ctx, ev)
	s.sendReply(ctx, ev, reply)
}

// sendReply replies via the single-use token and logs the bot message.
// Verification tokens never receive a reply attempt; reply failures are
// logged and not retried (the token would be spent anyway).
func (s *Server) sendReply(ctx context.Context, ev models.CanonicalEvent, text string) {
	if text == "" || ev.ReplyToken == "" || line.IsVerificationToken(ev.ReplyToken) {
		return
	}
	if err := s.lineClient.ReplyText(ev.ReplyToken, text); err != nil {
		slog.Error("Server.sendReply: reply failed", "error", err, "user_id", ev.UserID)
		return
	}
	s.activity.LogEvent(ctx, ev, models.SenderBot, text)
}
