package main

import (
	"context"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gitlab.com/zephyrtronium/pick"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/aracnido/haibot/metrics"
	"github.com/aracnido/haibot/session"
	"github.com/aracnido/haibot/terraria"
	"github.com/aracnido/haibot/translate"
)

// Bot is the overall configuration for the bot.
type Bot struct {
	// tg is the Telegram client.
	tg *tgbotapi.BotAPI
	// rate is the global rate limit on sending messages.
	rate *rate.Limiter
	// poll is the long polling timeout in seconds.
	poll int
	// webhook is the public base URL for webhook delivery. When empty, the
	// bot long polls instead.
	webhook string
	// hook receives updates decoded from webhook requests. It is nil when
	// long polling.
	hook chan tgbotapi.Update
	// terraria is the Terraria server status service.
	terraria *terraria.Service
	// sessions is the conversation session store.
	sessions *session.Store
	// locks serializes handlers per chat.
	locks session.Locks
	// translations are the loaded message translations.
	translations *translate.Bundle
	// quotes is the distribution of quotes, or nil if none are configured.
	quotes *pick.Dist[string]
	// owner is the chat ID of the owner.
	owner int64
	// ownerName is the name of the owner.
	ownerName string
	// ownerContact describes contact information for the owner.
	ownerContact string
	// tz is the timezone for log timestamps.
	tz *time.Location
	// secrets are the bot's derived keys.
	secrets *keys
	// works is the worker pool for handling updates.
	works chan chan func(context.Context)
	// metrics are a collection of custom counters for observability.
	metrics *metrics.Metrics
}

// New creates a new bot with the given maximum worker pool size.
func New(poolSize int) *Bot {
	return &Bot{
		works:   make(chan chan func(context.Context), poolSize),
		metrics: newMetrics(),
	}
}

func (robo *Bot) Run(ctx context.Context, listen string) error {
	group, ctx := errgroup.WithContext(ctx)
	mux := http.NewServeMux()
	group.Go(func() error {
		return robo.api(ctx, listen, mux, robo.metrics.Collectors())
	})
	group.Go(func() error {
		return robo.telegram(ctx)
	})
	err := group.Wait()
	if err == context.Canceled {
		// If the first error is context canceled, then we are shutting down
		// normally in response to a sigint.
		err = nil
	}
	return err
}
