package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hrlighting/linerelay/internal/gas"
	"github.com/hrlighting/linerelay/internal/models"
)

// Intent phrases that start the reservation dialogue.
var reservationIntents = []string{"預約", "我要預約", "預約安裝"}

// Tokens accepted as confirmation while the dialogue is in the confirming step.
var confirmTokens = []string{"確認預約", "確認", "OK", "ok", "好"}

// User-facing dialogue messages.
const (
	msgAskDate     = "好的，幫你啟動預約流程！請問想預約哪一天呢？（例如 2025-12-03）"
	msgAskTime     = "收到～那想約幾點呢？（例如 14:00）"
	msgAskInfo     = "最後幫我留一下資料：姓名/電話/車種（例如 王小明/0912345678/JETSL）"
	msgInfoFormat  = "格式好像少了一點東西，麻煩用「姓名/電話/車種」的格式再傳一次喔！"
	msgConfirmHint = "資料沒問題的話，回覆「確認預約」就可以囉；想重來的話輸入「預約」。"
	msgSubmitOK    = "預約完成！我們到時候見～有任何問題都可以再跟小潔說喔！"
	msgSubmitFail  = "不好意思，預約送出的時候出了點狀況，麻煩稍後再試一次，或直接留言給我們！"
)

// ReservationSubmitter is the slice of the external store the reservation
// flow needs for submission.
type ReservationSubmitter interface {
	BindLineCustomer(ctx context.Context, userID, phone, name string) error
	CreateReservation(ctx context.Context, res gas.Reservation) error
	ResolveLineCustomer(ctx context.Context, userID string) (gas.CustomerRef, error)
}

var _ ReservationSubmitter = (gas.Store)(nil)

// ReservationFlow drives the per-user reservation dialogue:
// idle -> waiting_date -> waiting_time -> waiting_info -> confirming -> idle.
type ReservationFlow struct {
	sessions  SessionStore
	submitter ReservationSubmitter
}

// NewReservationFlow creates a reservation flow with dependencies.
func NewReservationFlow(sessions SessionStore, submitter ReservationSubmitter) *ReservationFlow {
	return &ReservationFlow{sessions: sessions, submitter: submitter}
}

// Engaged reports whether the user currently has a reservation dialogue in
// progress.
func (f *ReservationFlow) Engaged(userID string) bool {
	s := f.sessions.Peek(userID)
	return s.InProgress()
}

// HandleMessage advances the user's reservation dialogue with one inbound
// text. It returns the reply to send and whether the message belonged to
// the dialogue at all; handled=false means the caller should fall through
// to the normal auto-reply path.
func (f *ReservationFlow) HandleMessage(ctx context.Context, userID, text string) (reply string, handled bool) {
	trimmed := strings.TrimSpace(text)

	f.sessions.Mutate(userID, func(s models.ReservationSession) models.ReservationSession {
		switch s.Step {
		case "", models.StepIdle:
			if !isReservationIntent(trimmed) {
				return s
			}
			handled = true
			reply = msgAskDate
			return models.ReservationSession{Step: models.StepWaitingDate}

		case models.StepWaitingDate:
			handled = true
			s.Date = trimmed
			s.Step = models.StepWaitingTime
			reply = msgAskTime
			return s

		case models.StepWaitingTime:
			handled = true
			s.Time = trimmed
			s.Step = models.StepWaitingInfo
			reply = msgAskInfo
			return s

		case models.StepWaitingInfo:
			handled = true
			parts := splitInfo(trimmed)
			if len(parts) < 3 {
				reply = msgInfoFormat
				return s
			}
			s.Name, s.Phone, s.Model = parts[0], parts[1], parts[2]
			s.Step = models.StepConfirming
			reply = confirmSummary(s)
			return s

		case models.StepConfirming:
			handled = true
			if !isConfirmToken(trimmed) {
				reply = msgConfirmHint
				return s
			}
			reply = f.submit(ctx, userID, s)
			return models.ReservationSession{Step: models.StepIdle}

		default:
			// Unknown step value, reset and treat the message as fresh input.
			slog.Warn("ReservationFlow.HandleMessage: unknown step, resetting", "user_id", userID, "step", s.Step)
			return models.ReservationSession{Step: models.StepIdle}
		}
	})

	return reply, handled
}

// submit performs the two best-effort store calls. A bind failure is logged
// but does not abort reservation creation.
func (f *ReservationFlow) submit(ctx context.Context, userID string, s models.ReservationSession) string {
	if err := f.submitter.BindLineCustomer(ctx, userID, s.Phone, s.Name); err != nil {
		slog.Warn("ReservationFlow.submit: bind customer failed", "error", err, "user_id", userID)
	}

	res := gas.Reservation{
		UserID: userID,
		Date:   s.Date,
		Time:   s.Time,
		Name:   s.Name,
		Phone:  s.Phone,
		Model:  s.Model,
	}
	if err := f.submitter.CreateReservation(ctx, res); err != nil {
		slog.Error("ReservationFlow.submit: create reservation failed", "error", err, "user_id", userID)
		return msgSubmitFail
	}
	slog.Info("ReservationFlow.submit: reservation created", "user_id", userID, "date", s.Date, "time", s.Time)

	// Echo the bound customer record back when the store knows the user.
	if ref, err := f.submitter.ResolveLineCustomer(ctx, userID); err == nil && ref.Name != "" {
		return ref.Name + "，" + msgSubmitOK
	}
	return msgSubmitOK
}

func isReservationIntent(text string) bool {
	for _, intent := range reservationIntents {
		if text == intent {
			return true
		}
	}
	return false
}

func isConfirmToken(text string) bool {
	for _, token := range confirmTokens {
		if text == token {
			return true
		}
	}
	return false
}

// splitInfo splits a name/phone/model line on slashes, normalizing the
// full-width variant users often type on mobile keyboards.
func splitInfo(text string) []string {
	normalized := strings.ReplaceAll(text, "／", "/")
	raw := strings.Split(normalized, "/")
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func confirmSummary(s models.ReservationSession) string {
	return fmt.Sprintf("幫你確認一下：%s %s，%s（%s），車種 %s。%s",
		s.Date, s.Time, s.Name, s.Phone, s.Model, msgConfirmHint)
}
