// Package chatbridge connects the assistant to Telegram over long polling.
// Each Telegram chat maps to one assistant session; /newchat resets it.
package chatbridge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	v1 "github.com/dharmendra-verma/smartshop-ai-sub000/server/router/api/v1"
)

const (
	pollTimeoutSeconds = 30
	bridgeMaxResults   = 5
)

// TurnRunner is the slice of the chat service the bridge needs.
type TurnRunner interface {
	RunTurn(ctx context.Context, sessionID, message string, maxResults int) *v1.TurnResult
	ClearSession(ctx context.Context, sessionID string) bool
}

// Bridge long-polls the Telegram Bot API and relays messages through the
// shared turn pipeline. A failing turn answers with an apology; the bridge
// itself never stops on a bad update.
type Bridge struct {
	bot  *tgbotapi.BotAPI
	chat TurnRunner

	mu       sync.Mutex
	sessions map[int64]string
}

// New authenticates against the Bot API.
func New(token string, chat TurnRunner) (*Bridge, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	slog.Info("telegram bridge authorized", "account", bot.Self.UserName)
	return &Bridge{
		bot:      bot,
		chat:     chat,
		sessions: map[int64]string{},
	}, nil
}

// Start consumes updates until the context is canceled.
func (b *Bridge) Start(ctx context.Context) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = pollTimeoutSeconds
	updates := b.bot.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			b.bot.StopReceivingUpdates()
			return
		case update := <-updates:
			b.process(ctx, update)
		}
	}
}

func (b *Bridge) process(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("telegram update handling panicked", "panic", r)
		}
	}()

	if update.Message == nil || update.Message.Text == "" {
		return
	}
	chatID := update.Message.Chat.ID
	reply := b.HandleText(ctx, chatID, update.Message.Text)
	if reply == "" {
		return
	}

	message := tgbotapi.NewMessage(chatID, reply)
	message.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.bot.Send(message); err != nil {
		// Markdown can fail on model output with unbalanced markers.
		message.ParseMode = ""
		if _, err := b.bot.Send(message); err != nil {
			slog.Warn("failed to send telegram reply", "chat_id", chatID, "error", err)
		}
	}
}

// HandleText runs one inbound message and returns the reply text.
func (b *Bridge) HandleText(ctx context.Context, chatID int64, text string) string {
	trimmed := strings.TrimSpace(text)
	switch trimmed {
	case "/start":
		return "Hi! I'm the SmartShop assistant. Ask me about products, prices, reviews, or store policies."
	case "/newchat":
		b.resetSession(ctx, chatID)
		return "Started a fresh conversation."
	}

	result := b.chat.RunTurn(ctx, b.sessionFor(chatID), trimmed, bridgeMaxResults)
	b.bindSession(chatID, result.SessionID)
	if !result.Success {
		slog.Warn("telegram turn failed", "chat_id", chatID, "error", result.Error)
		return "Sorry, I couldn't handle that. Please try again."
	}
	return renderReply(result)
}

func (b *Bridge) sessionFor(chatID int64) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessions[chatID]
}

func (b *Bridge) bindSession(chatID int64, sessionID string) {
	if sessionID == "" {
		return
	}
	b.mu.Lock()
	b.sessions[chatID] = sessionID
	b.mu.Unlock()
}

func (b *Bridge) resetSession(ctx context.Context, chatID int64) {
	b.mu.Lock()
	sessionID := b.sessions[chatID]
	delete(b.sessions, chatID)
	b.mu.Unlock()
	if sessionID != "" {
		b.chat.ClearSession(ctx, sessionID)
	}
}

// renderReply flattens the agent's structured output into chat prose.
// Recommendation lists get a compact markdown rendering; everything else
// falls back to the answer or summary text.
func renderReply(result *v1.TurnResult) string {
	data := result.Response

	var b strings.Builder
	if summary, ok := data["search_summary"].(string); ok && summary != "" {
		b.WriteString(summary)
	} else if answer, ok := data["answer"].(string); ok && answer != "" {
		b.WriteString(answer)
	} else if summary, ok := data["summary"].(string); ok && summary != "" {
		b.WriteString(summary)
	}

	if recommendations, ok := data["recommendations"].([]map[string]any); ok {
		for _, item := range recommendations {
			name, _ := item["name"].(string)
			price, _ := item["price"].(float64)
			reason, _ := item["reason"].(string)
			fmt.Fprintf(&b, "\n• *%s* — $%.2f\n  %s", name, price, reason)
		}
	}

	if b.Len() == 0 {
		return "Done."
	}
	return b.String()
}
