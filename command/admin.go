package command

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aracnido/haibot/message"
)

// Notify sends a message to an arbitrary chat on behalf of the bot owner.
// Anyone else invoking it is ignored.
func Notify(ctx context.Context, robo *Bot, call *Invocation) {
	if call.Message.Sender != robo.Owner {
		robo.Log.WarnContext(ctx, "notify from non-owner",
			slog.Int64("sender", call.Message.Sender),
			slog.Int64("chat", call.Message.Chat),
		)
		return
	}
	args := strings.SplitN(strings.TrimSpace(call.Args), " ", 2)
	if len(args) < 2 {
		reply(ctx, robo, call, call.Locale.Text("Use /notify chat_id text"))
		return
	}
	to, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		reply(ctx, robo, call, call.Locale.Text("Use /notify chat_id text"))
		return
	}
	robo.Send(ctx, message.Format(to, "%s", args[1]))
}

// Settings changes per-chat settings. Currently the only setting is the
// language used for replies.
func Settings(ctx context.Context, robo *Bot, call *Invocation) {
	codes := call.Locale.Text("Language codes:")
	for _, c := range robo.Translations.Codes() {
		codes += "\n<" + c + ">"
	}
	usage := call.Locale.Text("Use /settings language language_code") + "\n\n" + codes
	args := strings.Fields(call.Args)
	if len(args) < 2 {
		reply(ctx, robo, call, usage)
		return
	}
	switch args[0] {
	case "language", "l":
		if !robo.Translations.Has(args[1]) {
			reply(ctx, robo, call, call.Locale.Text("Unknown language code")+"\n\n"+codes)
			return
		}
		call.Session.Lang = args[1]
		// Confirm in the language just selected.
		call.Locale = robo.Translations.Locale(args[1])
		if !save(ctx, robo, call) {
			return
		}
		reply(ctx, robo, call, call.Locale.Textf("Language changed to %s", args[1]))
	default:
		reply(ctx, robo, call, usage)
	}
}
