// Package command implements the chat commands a bot performs.
package command

import (
	"context"

	"github.com/aracnido/haibot/message"
	"github.com/aracnido/haibot/session"
	"github.com/aracnido/haibot/translate"
)

// Invocation is a single command invocation.
type Invocation struct {
	// Message is the message which triggered the invocation.
	Message *message.Received
	// Args is the remainder of the message text after the command name.
	Args string
	// Session is the conversation session for the originating chat. Commands
	// may modify it; the caller persists no changes, so commands which
	// transition state must save through the bot's session store themselves.
	Session *session.Session
	// Locale is the locale resolved for the session.
	Locale *translate.Locale
}

// Func is a command implementation.
type Func func(ctx context.Context, robo *Bot, call *Invocation)

// reply sends text to the chat which invoked the command.
func reply(ctx context.Context, robo *Bot, call *Invocation, text string) {
	robo.Send(ctx, message.Format(call.Message.Chat, "%s", text))
}
