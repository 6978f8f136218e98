package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/user/streamwarden/internal/monitor"
)

const maxTelegramMessage = 4096

// Monitor is the slice of the stream monitor the adapter talks to.
type Monitor interface {
	Latest() *monitor.Snapshot
	Terminate(ctx context.Context, index int) monitor.Outcome
}

// Digester renders the library statistics summary on demand.
type Digester func(ctx context.Context) string

// sender abstracts the Telegram send call.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Adapter bridges Telegram to the stream monitor.
type Adapter struct {
	bot     *tgbotapi.BotAPI
	send    sender
	monitor Monitor
	digest  Digester
	chatID  int64
}

// New creates a Telegram adapter. chatID is the chat that receives pushed
// snapshots and digests; commands from other chats are ignored.
func New(token string, chatID int64, mon Monitor, digest Digester) (*Adapter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return &Adapter{
		bot:     bot,
		send:    bot,
		monitor: mon,
		digest:  digest,
		chatID:  chatID,
	}, nil
}

// Start begins long-polling for Telegram updates.
func (a *Adapter) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := a.bot.GetUpdatesChan(u)

	for {
		select {
		case update := <-updates:
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			a.handleMessage(ctx, update.Message)
		case <-ctx.Done():
			a.bot.StopReceivingUpdates()
			return
		}
	}
}

func (a *Adapter) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if a.chatID != 0 && msg.Chat.ID != a.chatID {
		slog.Warn("ignoring message from unknown chat", "chat_id", msg.Chat.ID)
		return
	}
	if !msg.IsCommand() {
		return
	}
	a.handleCommand(ctx, msg)
}

func (a *Adapter) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start", "help":
		a.SendTo(chatID, "Commands:\n/activity - current streams\n/stop <number> - stop a stream\n/status - server status\n/stats - library statistics")

	case "activity":
		snap := a.monitor.Latest()
		if snap == nil {
			a.SendTo(chatID, "No activity yet.")
			return
		}
		a.SendTo(chatID, snap.Message())

	case "stop":
		index, err := strconv.Atoi(strings.TrimSpace(msg.CommandArguments()))
		if err != nil {
			a.SendTo(chatID, "Usage: /stop <stream number>")
			return
		}
		outcome := a.monitor.Terminate(ctx, index)
		a.SendTo(chatID, outcome.Message(index))

	case "status":
		snap := a.monitor.Latest()
		switch {
		case snap == nil || !snap.Online:
			a.SendTo(chatID, "Monitor cannot reach the server.")
		case !snap.ServerOnline:
			a.SendTo(chatID, "Media server is offline.")
		default:
			a.SendTo(chatID, "Media server is online.")
		}

	case "stats":
		if a.digest == nil {
			a.SendTo(chatID, "Library statistics are not configured.")
			return
		}
		a.SendTo(chatID, a.digest(ctx))

	default:
		a.SendTo(chatID, "Unknown command. Available: /activity, /stop, /status, /stats")
	}
}

// Push sends a message to the configured chat.
func (a *Adapter) Push(text string) {
	if a.chatID == 0 {
		return
	}
	a.SendTo(a.chatID, text)
}

// SendTo sends a message to a chat, splitting it when it exceeds the
// Telegram size limit.
func (a *Adapter) SendTo(chatID int64, text string) {
	parts := splitMessage(text)
	for _, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		msg.ParseMode = "Markdown"
		if _, err := a.send.Send(msg); err != nil {
			// Retry without markdown if it fails
			msg.ParseMode = ""
			if _, err := a.send.Send(msg); err != nil {
				slog.Error("send message failed", "error", err)
			}
		}
	}
}

func splitMessage(text string) []string {
	if len(text) <= maxTelegramMessage {
		return []string{text}
	}
	var parts []string
	for len(text) > 0 {
		end := maxTelegramMessage
		if end > len(text) {
			end = len(text)
		}
		parts = append(parts, text[:end])
		text = text[end:]
	}
	return parts
}
