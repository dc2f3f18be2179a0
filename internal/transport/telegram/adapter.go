// Package telegram binds the transport port to the Telegram Bot API via
// telebot. It owns outcome classification: every telebot error collapses
// into one of the five transport.Outcome variants.
package telegram

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"botcast/internal/transport"
	logx "botcast/pkg/logx"
)

type Config struct {
	Token      string
	RatePerSec int
	Timeout    time.Duration

	// Offline skips the getMe token validation in telebot. Tests only.
	Offline bool
}

type Adapter struct {
	cfg     Config
	log     logx.Logger
	bot     *tele.Bot
	limiter *rate.Limiter
}

// New builds the adapter and validates the token against the API (getMe),
// so an invalid credential fails here instead of on the first send.
func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 25
	}

	b, err := tele.NewBot(tele.Settings{
		Token:   cfg.Token,
		Offline: cfg.Offline,
		Client:  &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}

	return &Adapter{
		cfg:     cfg,
		log:     log,
		bot:     b,
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// chatRef addresses a send by canonical recipient string ("-100123" or
// "@handle") without resolving the chat first.
type chatRef string

func (r chatRef) Recipient() string { return string(r) }

// Deliver sends one message to one recipient and classifies the result.
// The text goes out in full; any truncation is the caller's logging concern.
func (a *Adapter) Deliver(ctx context.Context, to transport.Recipient, text string, opt *transport.SendOptions) transport.Outcome {
	if to.IsZero() {
		return transport.Rejected("empty recipient")
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return transport.Failure(err.Error())
	}

	sendOpt := &tele.SendOptions{}
	if opt != nil {
		sendOpt.ParseMode = opt.ParseMode
		sendOpt.DisableWebPagePreview = opt.DisablePreview
	}

	_, err := a.bot.Send(chatRef(to.String()), text, sendOpt)
	out := classify(err)
	if out.Status != transport.StatusDelivered {
		a.log.Debug("send attempt failed",
			logx.String("to", to.String()),
			logx.String("status", out.Status.String()),
			logx.Duration("retry_after", out.RetryAfter),
			logx.String("reason", out.Reason))
	}
	return out
}
