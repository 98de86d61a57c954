package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/Alias1177/matchminer/internal/model"
)

// maxMessageLen is Telegram's limit for a text message.
const maxMessageLen = 4096

// Sender is the part of *tgbotapi.BotAPI the broadcaster needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Result counts delivered and failed messages.
type Result struct {
	Sent   int
	Failed int
}

// Broadcaster sends finding digests to Telegram chats.
type Broadcaster struct {
	sender     Sender
	limiter    *rate.Limiter
	newBackOff func() backoff.BackOff
	logger     zerolog.Logger
}

// NewBroadcaster creates a broadcaster sending at most perSec messages per
// second. Telegram allows about 30 per second for bots.
func NewBroadcaster(sender Sender, perSec int) *Broadcaster {
	if perSec <= 0 {
		perSec = 20
	}
	return &Broadcaster{
		sender:  sender,
		limiter: rate.NewLimiter(rate.Limit(perSec), 1),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.MaxElapsedTime = 30 * time.Second
			return backoff.WithMaxRetries(b, 3)
		},
		logger: log.With().Str("component", "broadcaster").Logger(),
	}
}

// Broadcast sends one digest of findings to every chat.
// It stops early only when ctx is done.
func (b *Broadcaster) Broadcast(ctx context.Context, chatIDs []int64, findings []model.Finding) (Result, error) {
	var res Result
	if len(chatIDs) == 0 {
		return res, nil
	}
	text := FormatDigest(findings)

	for i, chatID := range chatIDs {
		if err := b.limiter.Wait(ctx); err != nil {
			return res, fmt.Errorf("broadcast interrupted: %w", err)
		}
		if err := b.send(ctx, chatID, text); err != nil {
			if ctx.Err() != nil {
				return res, fmt.Errorf("broadcast interrupted: %w", ctx.Err())
			}
			b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send digest")
			res.Failed++
			continue
		}
		b.logger.Debug().Int64("chat_id", chatID).Int("n", i+1).Int("of", len(chatIDs)).Msg("Digest sent")
		res.Sent++
	}

	b.logger.Info().
		Int("chats", len(chatIDs)).
		Int("sent", res.Sent).
		Int("failed", res.Failed).
		Msg("Broadcast completed")
	return res, nil
}

func (b *Broadcaster) send(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	operation := func() error {
		_, err := b.sender.Send(msg)
		if err == nil {
			return nil
		}
		var tgErr *tgbotapi.Error
		if errors.As(err, &tgErr) && tgErr.Code >= 400 && tgErr.Code < 500 && tgErr.Code != 429 {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.Retry(operation, backoff.WithContext(b.newBackOff(), ctx))
}

// FormatDigest renders findings as a Telegram Markdown message, truncated to
// the message size limit.
func FormatDigest(findings []model.Finding) string {
	if len(findings) == 0 {
		return "No findings in the latest run."
	}

	var sb strings.Builder
	sb.WriteString("*Top patterns*\n\n")
	for i, f := range findings {
		line := fmt.Sprintf("%d. %s: *%s* %.2f%% (%d matches)\n",
			i+1, escape(f.Segment), escape(f.Label), f.Precision, f.SampleSize)
		if sb.Len()+len(line) > maxMessageLen-32 {
			fmt.Fprintf(&sb, "\n_and %d more_", len(findings)-i)
			break
		}
		sb.WriteString(line)
	}
	return sb.String()
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escape(s string) string {
	return markdownEscaper.Replace(s)
}
