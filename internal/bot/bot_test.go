package bot

import (
	"context"
	"errors"
	"testing"

	"ton_topup/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct{ sent []tgbotapi.Chattable }

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

type fakeProfiles struct {
	calls map[int64]domain.Profile
	err   error
}

func (f *fakeProfiles) UpsertProfile(_ context.Context, userID int64, p domain.Profile) (*domain.User, error) {
	if f.calls == nil {
		f.calls = map[int64]domain.Profile{}
	}
	f.calls[userID] = p
	return &domain.User{ID: userID}, f.err
}

func command(text string, from *tgbotapi.User) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text:     text,
		From:     from,
		Chat:     &tgbotapi.Chat{ID: from.ID, Type: "private"},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
	}}
}

func TestStart(t *testing.T) {
	s := &fakeSender{}
	p := &fakeProfiles{}
	h := NewHandler(s, p, "https://app.example", nil)

	h.HandleUpdate(context.Background(), command("/start", &tgbotapi.User{ID: 1455767363, UserName: "alice", FirstName: "Alice"}))

	require.Contains(t, p.calls, int64(1455767363))
	prof := p.calls[1455767363]
	require.NotNil(t, prof.Username)
	assert.Equal(t, "alice", *prof.Username)
	assert.Equal(t, "Alice", *prof.FirstName)
	assert.Nil(t, prof.LastName)

	require.Len(t, s.sent, 1)
	msg, ok := s.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(1455767363), msg.ChatID)
	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.NotNil(t, markup.InlineKeyboard[0][0].URL)
	assert.Equal(t, "https://app.example", *markup.InlineKeyboard[0][0].URL)
}

func TestStart_UpsertFailureStillReplies(t *testing.T) {
	s := &fakeSender{}
	h := NewHandler(s, &fakeProfiles{err: errors.New("db down")}, "", nil)

	h.HandleUpdate(context.Background(), command("/start", &tgbotapi.User{ID: 5}))
	assert.Len(t, s.sent, 1)
}

func TestIgnoresOtherUpdates(t *testing.T) {
	s := &fakeSender{}
	p := &fakeProfiles{}
	h := NewHandler(s, p, "", nil)

	h.HandleUpdate(context.Background(), tgbotapi.Update{})
	h.HandleUpdate(context.Background(), command("/help", &tgbotapi.User{ID: 5}))
	plain := command("hello", &tgbotapi.User{ID: 5})
	plain.Message.Entities = nil
	h.HandleUpdate(context.Background(), plain)

	assert.Empty(t, s.sent)
	assert.Empty(t, p.calls)
}
