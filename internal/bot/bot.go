// Package bot is the Telegram front-end: /start registers the user and links
// to the WebApp where top-ups happen.
package bot

import (
	"context" // For cancellation

	"ton_topup/internal/domain" // Profile fields

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5" // Telegram Bot API
	"github.com/sirupsen/logrus"                                  // Structured logging
)

const welcomeText = "Welcome! 🚀\n\nTap the button below to open your account and top up your balance."

// Sender is the subset of *tgbotapi.BotAPI used to reply.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Profiles creates or refreshes users. Implemented by account.Service.
type Profiles interface {
	UpsertProfile(ctx context.Context, userID int64, p domain.Profile) (*domain.User, error)
}

// Handler answers bot commands.
type Handler struct {
	sender    Sender
	profiles  Profiles
	webAppURL string
	log       logrus.FieldLogger
}

// NewHandler builds a Handler. An empty webAppURL sends the welcome text
// without a button.
func NewHandler(sender Sender, profiles Profiles, webAppURL string, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{sender: sender, profiles: profiles, webAppURL: webAppURL, log: log}
}

// Run polls updates until ctx is cancelled.
func (h *Handler) Run(ctx context.Context, api *tgbotapi.BotAPI) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60 // Long polling, seconds
	updates := api.GetUpdatesChan(u)

	h.log.WithField("bot", api.Self.UserName).Info("Bot started")
	for {
		select {
		case <-ctx.Done():
			api.StopReceivingUpdates()
			h.log.Info("Bot stopped")
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			h.HandleUpdate(ctx, upd)
		}
	}
}

// HandleUpdate dispatches a single update. Non-command messages are ignored.
func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.From == nil || !msg.IsCommand() {
		return
	}
	switch msg.Command() {
	case "start":
		h.handleStart(ctx, msg)
	}
}

func (h *Handler) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	from := msg.From
	_, err := h.profiles.UpsertProfile(ctx, from.ID, domain.Profile{
		Username:  optional(from.UserName),
		FirstName: optional(from.FirstName),
		LastName:  optional(from.LastName),
	})
	if err != nil { // Still reply so the user can open the app
		h.log.WithFields(logrus.Fields{"user_id": from.ID, "error": err.Error()}).Error("User upsert failed")
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, welcomeText)
	if h.webAppURL != "" {
		reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("🚀 Open app", h.webAppURL)),
		)
	}
	if _, err := h.sender.Send(reply); err != nil {
		h.log.WithFields(logrus.Fields{"chat_id": msg.Chat.ID, "error": err.Error()}).Warn("Reply failed")
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
