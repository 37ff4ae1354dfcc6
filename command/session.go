package command

import (
	"context"
	"log/slog"

	"github.com/aracnido/haibot/session"
)

const helpText = `Available commands:
/start - Start the bot
/help - Show available commands
/exit - Leave the current mode
/pj - Create a character
/master - Run an adventure as master
/play - Join an adventure
/terraria - Terraria server status, log, and notifications
/quote - Get a random quote
/settings - Change settings`

// save persists the invocation's session, replying with a generic failure
// message if it can't. The reported result is whether the save succeeded.
func save(ctx context.Context, robo *Bot, call *Invocation) bool {
	if err := robo.Sessions.Save(ctx, call.Session); err != nil {
		robo.Log.ErrorContext(ctx, "couldn't save session",
			slog.Int64("chat", call.Message.Chat),
			slog.Any("err", err),
		)
		reply(ctx, robo, call, call.Locale.Text("Something went wrong. Try again later."))
		return false
	}
	return true
}

// Start begins a conversation with the bot.
func Start(ctx context.Context, robo *Bot, call *Invocation) {
	if call.Session.State != session.Stopped {
		reply(ctx, robo, call, call.Locale.Textf("The bot is already started and active. (State: %s)", call.Locale.Text(call.Session.State.String())))
		return
	}
	reply(ctx, robo, call, call.Locale.Text("Welcome to Dungeon World Bot."))
	Help(ctx, robo, call)
}

// Help describes the available commands and the current session state.
func Help(ctx context.Context, robo *Bot, call *Invocation) {
	reply(ctx, robo, call, call.Locale.Text(helpText))
	reply(ctx, robo, call, call.Locale.Textf("State: %s", call.Locale.Text(call.Session.State.String())))
}

// Exit leaves the current mode and returns the session to its initial state.
func Exit(ctx context.Context, robo *Bot, call *Invocation) {
	if call.Session.State == session.Stopped {
		reply(ctx, robo, call, call.Locale.Text("The bot is already stopped."))
		return
	}
	prev := call.Session.State
	call.Session.Reset()
	if !save(ctx, robo, call) {
		return
	}
	reply(ctx, robo, call, call.Locale.Textf("Exiting from: %s", call.Locale.Text(prev.String())))
}

// role transitions a stopped session into a mode.
func role(ctx context.Context, robo *Bot, call *Invocation, to session.State) {
	if call.Session.State != session.Stopped {
		reply(ctx, robo, call, call.Locale.Text("ya"))
		return
	}
	call.Session.State = to
	if !save(ctx, robo, call) {
		return
	}
	reply(ctx, robo, call, call.Locale.Text("guay"))
}

// NewCharacter enters character creation.
func NewCharacter(ctx context.Context, robo *Bot, call *Invocation) {
	role(ctx, robo, call, session.NewCharacter)
}

// MasterMode enters the game master CLI.
func MasterMode(ctx context.Context, robo *Bot, call *Invocation) {
	role(ctx, robo, call, session.Master)
}

// Play joins an adventure.
func Play(ctx context.Context, robo *Bot, call *Invocation) {
	role(ctx, robo, call, session.Joining)
}
