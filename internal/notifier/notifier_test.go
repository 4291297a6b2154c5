package notifier

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"story-server/internal/config"
	"story-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, mail Mail) error {
	return m.Called(ctx, mail).Error(0)
}

func solvedEvent(recipients ...string) models.SheetSolvedEvent {
	return models.SheetSolvedEvent{
		ProgressID: uuid.New(),
		UserID:     uuid.New(),
		StoryID:    uuid.New(),
		SheetID:    uuid.New(),
		StoryTitle: "Mystery",
		SheetTitle: "Hall",
		Recipients: recipients,
		SolvedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSolvedMailer_SendsToEveryRecipient(t *testing.T) {
	sender := new(mockSender)
	sender.On("Send", mock.Anything, mock.MatchedBy(func(m Mail) bool { return m.To == "a@example.com" })).Return(nil).Once()
	sender.On("Send", mock.Anything, mock.MatchedBy(func(m Mail) bool { return m.To == "b@example.com" })).Return(nil).Once()

	err := NewSolvedMailer(sender, zap.NewNop()).HandleSheetSolved(context.Background(), solvedEvent("a@example.com", "b@example.com"))

	require.NoError(t, err)
	sender.AssertExpectations(t)
	mail := sender.Calls[0].Arguments.Get(1).(Mail)
	assert.Contains(t, mail.Subject, "Mystery")
	assert.Contains(t, mail.Body, "\"Hall\"")
	assert.Contains(t, mail.Body, "2026-03-01T12:00:00Z")
}

func TestSolvedMailer_PartialFailure(t *testing.T) {
	sender := new(mockSender)
	sender.On("Send", mock.Anything, mock.MatchedBy(func(m Mail) bool { return m.To == "a@example.com" })).Return(errors.New("mailbox full")).Once()
	sender.On("Send", mock.Anything, mock.MatchedBy(func(m Mail) bool { return m.To == "b@example.com" })).Return(nil).Once()

	err := NewSolvedMailer(sender, zap.NewNop()).HandleSheetSolved(context.Background(), solvedEvent("a@example.com", "b@example.com"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")
	sender.AssertExpectations(t)
}

func TestSolvedMailer_NoRecipients(t *testing.T) {
	sender := new(mockSender)
	err := NewSolvedMailer(sender, zap.NewNop()).HandleSheetSolved(context.Background(), solvedEvent())
	assert.NoError(t, err)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func newTestSMTPSender(t *testing.T) *SMTPSender {
	s, err := NewSMTPSender(config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     2525,
		Username: "user",
		Password: "pass",
		From:     "noreply@example.com",
	}, zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestSMTPSender_Send(t *testing.T) {
	s := newTestSMTPSender(t)

	var raw bytes.Buffer
	var recipients []string
	s.send = func(_ context.Context, msg *gomail.Msg) error {
		var err error
		recipients, err = msg.GetRecipients()
		if err != nil {
			return err
		}
		_, err = msg.WriteTo(&raw)
		return err
	}

	err := s.Send(context.Background(), Mail{
		To:      "a@example.com",
		Subject: "Лист решён: Hi\r\nBcc: x@y",
		Body:    "line1\nline2",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a@example.com"}, recipients)
	msg := raw.String()
	assert.Contains(t, msg, "noreply@example.com")
	assert.Contains(t, msg, "Subject: =?UTF-8?")
	assert.NotContains(t, msg, "решён", "non-ASCII subject must be encoded")
	assert.NotContains(t, msg, "\r\nBcc:")
	assert.Contains(t, msg, "line1")
	assert.Contains(t, msg, "line2")
}

func TestSMTPSender_Errors(t *testing.T) {
	s := newTestSMTPSender(t)
	sent := 0
	s.send = func(context.Context, *gomail.Msg) error {
		sent++
		return errors.New("connection refused")
	}

	assert.Error(t, s.Send(context.Background(), Mail{To: "a@example.com"}))
	assert.Equal(t, 1, sent)

	assert.Error(t, s.Send(context.Background(), Mail{To: "a@example.com\r\nBcc: evil@example.com"}))
	assert.Error(t, s.Send(context.Background(), Mail{To: "not an address"}))
	assert.Equal(t, 1, sent, "invalid recipients never reach the relay")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, Mail{To: "a@example.com"}), context.Canceled)
}
