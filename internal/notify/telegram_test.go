package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/Alias1177/matchminer/internal/model"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return args.Get(0).(tgbotapi.Message), args.Error(1)
}

func chat(id int64) interface{} {
	return mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		msg, ok := c.(tgbotapi.MessageConfig)
		return ok && msg.ChatID == id && msg.ParseMode == tgbotapi.ModeMarkdown
	})
}

func testBroadcaster(s Sender) *Broadcaster {
	b := NewBroadcaster(s, 10)
	b.limiter = rate.NewLimiter(rate.Inf, 1)
	b.newBackOff = func() backoff.BackOff { return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2) }
	return b
}

var findings = []model.Finding{
	{Segment: "Huge Elo gap", Label: "OVER 24.5", Precision: 92.5, SampleSize: 40},
	{Segment: "Home odds < 1.3", Label: "UNDER 8.5", Precision: 71.25, SampleSize: 120},
}

func TestBroadcast(t *testing.T) {
	s := new(mockSender)
	s.On("Send", chat(1)).Return(tgbotapi.Message{}, nil).Once()
	// Transient failure, then success.
	s.On("Send", chat(2)).Return(tgbotapi.Message{}, errors.New("timeout")).Once()
	s.On("Send", chat(2)).Return(tgbotapi.Message{}, nil).Once()
	// Permanent failure is not retried.
	s.On("Send", chat(3)).Return(tgbotapi.Message{}, &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"}).Once()
	// Transient failure exhausts the retries.
	s.On("Send", chat(4)).Return(tgbotapi.Message{}, errors.New("timeout")).Times(3)

	res, err := testBroadcaster(s).Broadcast(context.Background(), []int64{1, 2, 3, 4}, findings)
	require.NoError(t, err)
	assert.Equal(t, Result{Sent: 2, Failed: 2}, res)
	s.AssertExpectations(t)
}

func TestBroadcastCancelled(t *testing.T) {
	s := new(mockSender)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := testBroadcaster(s)
	b.limiter = rate.NewLimiter(1, 0)
	_, err := b.Broadcast(ctx, []int64{1}, findings)
	assert.Error(t, err)
	s.AssertNotCalled(t, "Send", mock.Anything)
}

func TestBroadcastNoChats(t *testing.T) {
	s := new(mockSender)
	res, err := testBroadcaster(s).Broadcast(context.Background(), nil, findings)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
}

func TestFormatDigest(t *testing.T) {
	out := FormatDigest(findings)
	assert.Contains(t, out, "1. Huge Elo gap: *OVER 24.5* 92.50% (40 matches)")
	assert.Contains(t, out, "2. Home odds < 1.3: *UNDER 8.5* 71.25% (120 matches)")

	assert.Equal(t, "No findings in the latest run.", FormatDigest(nil))
	assert.Contains(t, FormatDigest([]model.Finding{{Segment: "a_b", Label: "x*y"}}), `a\_b: *x\*y*`)

	many := make([]model.Finding, 500)
	for i := range many {
		many[i] = model.Finding{Segment: strings.Repeat("s", 20), Label: "OVER 2.5", Precision: 70, SampleSize: 100}
	}
	long := FormatDigest(many)
	assert.LessOrEqual(t, len(long), maxMessageLen)
	assert.Contains(t, long, "more_")
}
