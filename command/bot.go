package command

import (
	"context"
	"log/slog"

	"gitlab.com/zephyrtronium/pick"

	"github.com/aracnido/haibot/message"
	"github.com/aracnido/haibot/session"
	"github.com/aracnido/haibot/terraria"
	"github.com/aracnido/haibot/translate"
)

// Bot is the bot state as is visible to command implementations.
type Bot struct {
	// Log is the logger for the bot.
	Log *slog.Logger
	// Terraria is the Terraria server status service.
	Terraria *terraria.Service
	// Sessions is the conversation session store.
	Sessions *session.Store
	// Translations are the loaded message translations.
	Translations *translate.Bundle
	// Quotes is the distribution of quotes for the quote command.
	// It may be nil if no quotes are configured.
	Quotes *pick.Dist[string]
	// Owner is the chat ID of the bot owner.
	Owner int64
	// Send delivers a message and reports whether delivery succeeded.
	Send func(ctx context.Context, msg message.Sent) bool
	// Notify delivers text to every auto-notification subscriber except the
	// chat with ID except. Delivery failures to one subscriber do not affect
	// the others.
	Notify func(ctx context.Context, text string, except int64)
}
