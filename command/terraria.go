package command

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aracnido/haibot/message"
)

const terrariaUsage = `Use /terraria <subcommand>:
status (s) - Current server status
log (l) [n|m] - Last n log entries, or milestones only
autonot (a) [on|off] - Toggle automatic notifications
ip (i) - Current server IP
milestone (m) <text> - Record a milestone
on [ip] - Report the server on
off - Report the server off`

// defaultLogEntries is how much history /terraria log shows with no count.
const defaultLogEntries = 5

// Terraria reports and records Terraria server status.
func Terraria(ctx context.Context, robo *Bot, call *Invocation) {
	loc := call.Locale
	args := strings.Fields(call.Args)
	if len(args) == 0 {
		reply(ctx, robo, call, loc.Text(terrariaUsage))
		return
	}
	switch args[0] {
	case "status", "s":
		reply(ctx, robo, call, robo.Terraria.Status(loc))
	case "ip", "i":
		reply(ctx, robo, call, robo.Terraria.IP(loc))
	case "log", "l":
		amount, only := defaultLogEntries, false
		if len(args) > 1 {
			switch args[1] {
			case "m", "milestones":
				only = true
			default:
				if n, err := strconv.Atoi(args[1]); err == nil && n > 0 {
					amount = n
				}
			}
		}
		reply(ctx, robo, call, robo.Terraria.Log(ctx, loc, amount, only))
	case "autonot", "a":
		var on bool
		var err error
		switch {
		case len(args) > 1 && args[1] == "on":
			on, err = robo.Terraria.SetAutonotOn(ctx, call.Message.Chat)
		case len(args) > 1 && args[1] == "off":
			on, err = robo.Terraria.SetAutonotOff(ctx, call.Message.Chat)
		default:
			on, err = robo.Terraria.ToggleAutonot(ctx, call.Message.Chat)
		}
		if err != nil {
			robo.Log.ErrorContext(ctx, "couldn't update autonot",
				slog.Int64("chat", call.Message.Chat),
				slog.Any("err", err),
			)
			reply(ctx, robo, call, loc.Text("Something went wrong. Try again later."))
			return
		}
		if on {
			reply(ctx, robo, call, loc.Textf("%s was added to auto notifications.", call.Message.Name))
		} else {
			reply(ctx, robo, call, loc.Textf("%s was removed from auto notifications.", call.Message.Name))
		}
	case "milestone", "m":
		if len(args) < 2 {
			reply(ctx, robo, call, loc.Text(terrariaUsage))
			return
		}
		text, err := robo.Terraria.AddMilestone(ctx, loc, call.Message.Time(), call.Message.Name, strings.Join(args[1:], " "))
		if err != nil {
			robo.Log.ErrorContext(ctx, "couldn't record milestone", slog.Any("err", err))
			reply(ctx, robo, call, loc.Text("Something went wrong. Try again later."))
			return
		}
		announce(ctx, robo, call, text)
	case "on":
		var ip string
		if len(args) > 1 {
			ip = args[1]
		} else {
			reply(ctx, robo, call, loc.Text("Note: You can set a IP with:\n/terraria on <your ip>"))
		}
		text, err := robo.Terraria.ChangeStatus(ctx, loc, call.Message.Time(), true, call.Message.Name, ip)
		if err != nil {
			robo.Log.ErrorContext(ctx, "couldn't record status", slog.Any("err", err))
			reply(ctx, robo, call, loc.Text("Something went wrong. Try again later."))
			return
		}
		announce(ctx, robo, call, text)
	case "off":
		text, err := robo.Terraria.ChangeStatus(ctx, loc, call.Message.Time(), false, call.Message.Name, "")
		if err != nil {
			robo.Log.ErrorContext(ctx, "couldn't record status", slog.Any("err", err))
			reply(ctx, robo, call, loc.Text("Something went wrong. Try again later."))
			return
		}
		announce(ctx, robo, call, text)
	default:
		reply(ctx, robo, call, loc.Text(terrariaUsage))
	}
}

// announce replies to the originating chat and fans the same text out to
// every auto-notification subscriber. The originating chat is excluded from
// the fan-out only if the direct reply was delivered, so a chat never gets
// the same announcement twice but never misses it either.
func announce(ctx context.Context, robo *Bot, call *Invocation, text string) {
	var except int64
	if robo.Send(ctx, message.Format(call.Message.Chat, "%s", text)) {
		except = call.Message.Chat
	}
	robo.Notify(ctx, text, except)
}
