package flow

import (
	"context"
	"log/slog"

	"github.com/openai/openai-go"
	"golang.org/x/time/rate"

	"github.com/hrlighting/linerelay/internal/genai"
	"github.com/hrlighting/linerelay/internal/models"
)

// PersonaPrompt is the fixed system instruction for the shop's online
// customer-service character.
const PersonaPrompt = "你是機車精品改裝店「H.R 燈藝」的線上客服「小潔」，" +
	"使用者多半是來詢問尾燈、方向燈、排氣管、烤漆、安裝預約等問題。\n" +
	"請用「活潑親切但專業」的口吻回覆，使用繁體中文，不要用 emoji。\n" +
	"如果對方問到價格或施工時間，先用大概的區間回答，" +
	"並提醒可以提供車種與想要改裝的項目，讓你再幫忙抓比較準的估價。"

// Fixed fallback strings. The conversation flow must always receive a
// string when automation is permitted, never an error.
const (
	// msgStickerReply answers sticker messages without any external call.
	msgStickerReply = "收到你的貼圖～如果方便的話，也可以再打一點文字讓小潔更好幫你喔！"
	// msgAIUnavailable is sent when the completion capability is absent.
	msgAIUnavailable = "目前暫時無法連線到 AI 伺服器，不好意思 >_<"
	// msgAIBusy is sent when a completion call fails or is rate limited.
	msgAIBusy = "目前系統有點忙不過來，我可能晚一點才有辦法幫你詳細回覆 QQ"
	// msgAIEmpty is sent when the model returns an empty completion.
	msgAIEmpty = "這邊暫時想不到怎麼回，可以再多跟我描述一點嗎？"
)

// Default completion call budget: sustained one call per second with a
// small burst, shared process-wide.
const (
	defaultReplyRate  = rate.Limit(1)
	defaultReplyBurst = 5
)

// ReplyGenerator produces reply text for events the staleness gate let
// through. genaiClient may be nil, meaning the capability is not configured.
type ReplyGenerator struct {
	genaiClient genai.ClientInterface
	limiter     *rate.Limiter
}

// NewReplyGenerator creates a reply generator. A nil client degrades every
// text reply to the unavailability apology.
func NewReplyGenerator(genaiClient genai.ClientInterface) *ReplyGenerator {
	return &ReplyGenerator{
		genaiClient: genaiClient,
		limiter:     rate.NewLimiter(defaultReplyRate, defaultReplyBurst),
	}
}

// Generate returns the reply text for a normalized event. It never returns
// an error: every failure path degrades to a fixed string.
func (g *ReplyGenerator) Generate(ctx context.Context, ev models.CanonicalEvent) string {
	if ev.Kind == models.EventKindSticker {
		return msgStickerReply
	}

	if g.genaiClient == nil {
		slog.Warn("ReplyGenerator.Generate: completion capability not configured")
		return msgAIUnavailable
	}
	if !g.limiter.Allow() {
		slog.Warn("ReplyGenerator.Generate: completion call rate limited", "user_id", ev.UserID)
		return msgAIBusy
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(PersonaPrompt),
		openai.UserMessage(ev.Text),
	}
	reply, err := g.genaiClient.GenerateWithMessages(ctx, messages)
	if err != nil {
		slog.Error("ReplyGenerator.Generate: completion failed", "error", err, "user_id", ev.UserID)
		return msgAIBusy
	}
	if reply == "" {
		return msgAIEmpty
	}
	return reply
}
