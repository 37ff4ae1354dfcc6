package command

import (
	"context"
	"math/rand/v2"
)

// Quote replies with a randomly selected quote.
func Quote(ctx context.Context, robo *Bot, call *Invocation) {
	if robo.Quotes == nil {
		reply(ctx, robo, call, call.Locale.Text("QUOTE"))
		return
	}
	q := robo.Quotes.Pick(rand.Uint32())
	if q == "" {
		q = call.Locale.Text("QUOTE")
	}
	reply(ctx, robo, call, q)
}

// List is a placeholder for media list management.
func List(ctx context.Context, robo *Bot, call *Invocation) {
	reply(ctx, robo, call, call.Locale.Text("Use /list <list_name> to show a list"))
}

// Search is a placeholder for media search.
func Search(ctx context.Context, robo *Bot, call *Invocation) {
	reply(ctx, robo, call, call.Locale.Text("Use /search <source> <query>"))
}

// Unknown answers any command with no other implementation.
func Unknown(ctx context.Context, robo *Bot, call *Invocation) {
	reply(ctx, robo, call, call.Locale.Textf("%s is a unknown command. Use /help for available commands.", call.Message.Text))
}
