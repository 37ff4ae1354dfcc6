package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aracnido/haibot/command"
	"github.com/aracnido/haibot/message"
	"github.com/aracnido/haibot/session"
)

// telegram receives updates until the context is canceled.
func (robo *Bot) telegram(ctx context.Context) error {
	updates, err := robo.updates(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			robo.tg.StopReceivingUpdates()
			return ctx.Err()
		case u, ok := <-updates:
			if !ok {
				return ctx.Err()
			}
			robo.update(ctx, &u)
		}
	}
}

// updates opens the update source. With a webhook base URL configured, it
// registers the webhook with Telegram and updates arrive through the HTTP
// server; otherwise it starts long polling.
func (robo *Bot) updates(ctx context.Context) (tgbotapi.UpdatesChannel, error) {
	if robo.webhook == "" {
		slog.InfoContext(ctx, "long polling", slog.Int("timeout", robo.poll))
		u := tgbotapi.NewUpdate(0)
		u.Timeout = robo.poll
		return robo.tg.GetUpdatesChan(u), nil
	}
	// The public URL carries a derived secret as its final path component,
	// so only Telegram can deliver updates to us.
	wh, err := tgbotapi.NewWebhook(robo.webhook + "/telegram/" + robo.secrets.webhook)
	if err != nil {
		return nil, fmt.Errorf("couldn't build webhook config: %w", err)
	}
	if _, err := robo.tg.Request(wh); err != nil {
		return nil, fmt.Errorf("couldn't register webhook: %w", err)
	}
	slog.InfoContext(ctx, "webhook registered", slog.String("base", robo.webhook))
	robo.hook = make(chan tgbotapi.Update, 8)
	return robo.hook, nil
}

// update processes a single update from Telegram.
func (robo *Bot) update(ctx context.Context, u *tgbotapi.Update) {
	robo.metrics.UpdateCount.Observe(1)
	msg := u.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		return
	}
	m := &message.Received{
		ID:        msg.MessageID,
		Chat:      msg.Chat.ID,
		Sender:    msg.From.ID,
		Name:      msg.From.FirstName,
		Text:      msg.Text,
		Timestamp: int64(msg.Date),
	}
	name, args := parseCommand(m.Text)
	if name == "" {
		// Plain text only matters inside a conversation mode, and none of
		// those read free text yet.
		slog.DebugContext(ctx, "not a command", slog.Int64("chat", m.Chat))
		return
	}
	// Run the rest in a worker so that we don't block the update loop.
	work := func(ctx context.Context) {
		release := robo.locks.Acquire(m.Chat)
		defer release()
		s, err := robo.sessions.Load(ctx, m.Chat)
		if err != nil {
			// A session that can't be decoded would wedge its chat forever.
			// Start it over instead.
			slog.ErrorContext(ctx, "couldn't load session; resetting",
				slog.Int64("chat", m.Chat),
				slog.Any("err", err),
			)
			s = &session.Session{Chat: m.Chat}
		}
		c := findCommand(name)
		slog.InfoContext(ctx, "command",
			slog.String("name", c.name),
			slog.Int64("chat", m.Chat),
		)
		robo.metrics.CommandCount.Observe(1)
		r := command.Bot{
			Log:          slog.Default(),
			Terraria:     robo.terraria,
			Sessions:     robo.sessions,
			Translations: robo.translations,
			Quotes:       robo.quotes,
			Owner:        robo.owner,
			Send:         robo.send,
			Notify:       robo.notify,
		}
		inv := command.Invocation{
			Message: m,
			Args:    args,
			Session: s,
			Locale:  robo.translations.Locale(s.Lang),
		}
		start := time.Now()
		c.fn(ctx, &r, &inv)
		robo.metrics.CommandLatency.Observe(time.Since(start).Seconds(), c.name)
	}
	robo.enqueue(ctx, work)
}

func (robo *Bot) enqueue(ctx context.Context, work func(context.Context)) {
	var w chan func(context.Context)
	// Get a worker if one exists. Otherwise, spawn a new one.
	select {
	case w = <-robo.works:
	default:
		w = make(chan func(context.Context), 1)
		go worker(ctx, robo.works, w)
	}
	// Send it work.
	select {
	case <-ctx.Done():
		return
	case w <- work:
	}
}

// worker runs works for a while. The provided context is passed to each work.
func worker(ctx context.Context, works chan chan func(context.Context), ch chan func(context.Context)) {
	for {
		select {
		case <-ctx.Done():
			return
		case work := <-ch:
			work(ctx)
			// Replace ourselves in the pool if it needs additional capacity.
			// Otherwise, we're done.
			select {
			case works <- ch:
			default:
				return
			}
		}
	}
}

// send sends a message to Telegram after waiting for the global rate limit.
// It reports whether the message was delivered.
func (robo *Bot) send(ctx context.Context, msg message.Sent) bool {
	if err := robo.rate.Wait(ctx); err != nil {
		return false
	}
	if _, err := robo.tg.Send(tgbotapi.NewMessage(msg.To, msg.Text)); err != nil {
		robo.metrics.SendErrors.Observe(1)
		slog.ErrorContext(ctx, "send failed",
			slog.Int64("chat", msg.To),
			slog.Any("err", err),
		)
		return false
	}
	robo.metrics.SentCount.Observe(1)
	return true
}

// notify sends text to every auto-notification subscriber except the chat
// with ID except. A failed delivery to one subscriber never stops delivery
// to the rest.
func (robo *Bot) notify(ctx context.Context, text string, except int64) {
	subs, err := robo.terraria.Subscribers(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "couldn't list subscribers", slog.Any("err", err))
		return
	}
	robo.metrics.NotifyFanout.Observe(float64(len(subs)))
	for _, id := range subs {
		if id == except {
			continue
		}
		robo.send(ctx, message.Format(id, "%s", text))
	}
}

// parseCommand splits a message into a command name and its arguments.
// A command is a first word of the form /name or /name@botname. The name is
// lowercased; the bot suffix is discarded. Non-commands give an empty name.
func parseCommand(text string) (name, args string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}
	name, args, _ = strings.Cut(text[1:], " ")
	name, _, _ = strings.Cut(name, "@")
	if name == "" {
		return "", ""
	}
	return strings.ToLower(name), strings.TrimSpace(args)
}
