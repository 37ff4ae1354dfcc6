package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"

	"github.com/aracnido/haibot/metrics"
)

var app = cli.Command{
	Name:  "haibot",
	Usage: "Telegram tabletop assistant and Terraria status bot",

	Flags: []cli.Flag{
		&flagConfig,
		&flagLog,
		&flagLogFormat,
	},
	Commands: []*cli.Command{
		{
			Name:  "notify",
			Usage: "Send a message to a chat without serving",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:     "to",
					Usage:    "Chat ID to send to",
					Required: true,
				},
				&cli.StringFlag{
					Name:     "text",
					Usage:    "Message text",
					Required: true,
				},
			},
			Action: cliNotify,
		},
		{
			Name:   "disable-webhook",
			Usage:  "Remove a registered webhook so long polling works again",
			Action: cliDisableWebhook,
		},
	},
	Action: cliRun,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	go func() {
		<-ctx.Done()
		stop()
	}()
	err := app.Run(ctx, os.Args)
	if err != nil {
		fmt.Println(err)
	}
}

func cliRun(ctx context.Context, cmd *cli.Command) error {
	slog.SetDefault(loggerFromFlags(cmd))
	r, err := os.Open(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("couldn't open config file: %w", err)
	}
	cfg, _, err := Load(ctx, r)
	if err != nil {
		return fmt.Errorf("couldn't load config: %w", err)
	}
	r.Close()

	robo := New(runtime.GOMAXPROCS(0))
	robo.SetOwner(cfg.Owner)
	if err := robo.SetSecrets(cfg.SecretFile); err != nil {
		return err
	}
	var tz *time.Location
	if cfg.Timezone != "" {
		tz, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			return fmt.Errorf("couldn't load timezone: %w", err)
		}
	}
	kv, pool, err := loadDBs(ctx, cfg.DB)
	if err != nil {
		return err
	}
	if err := robo.SetSources(ctx, kv, pool, tz); err != nil {
		return err
	}
	if err := robo.SetTranslations(cfg.Locale, cfg.Quotes); err != nil {
		return err
	}
	if err := robo.InitTelegram(ctx, cfg.Telegram); err != nil {
		return err
	}

	return robo.Run(ctx, cfg.HTTP.Listen)
}

func cliNotify(ctx context.Context, cmd *cli.Command) error {
	slog.SetDefault(loggerFromFlags(cmd))
	cfg, err := cliConfig(ctx, cmd)
	if err != nil {
		return err
	}
	tok, err := loadToken(cfg.Telegram.TokenFile)
	if err != nil {
		return err
	}
	tg, err := tgbotapi.NewBotAPI(tok)
	if err != nil {
		return fmt.Errorf("couldn't create Telegram client: %w", err)
	}
	msg := tgbotapi.NewMessage(cmd.Int("to"), cmd.String("text"))
	if _, err := tg.Send(msg); err != nil {
		return fmt.Errorf("couldn't send message: %w", err)
	}
	return nil
}

func cliDisableWebhook(ctx context.Context, cmd *cli.Command) error {
	slog.SetDefault(loggerFromFlags(cmd))
	cfg, err := cliConfig(ctx, cmd)
	if err != nil {
		return err
	}
	tok, err := loadToken(cfg.Telegram.TokenFile)
	if err != nil {
		return err
	}
	tg, err := tgbotapi.NewBotAPI(tok)
	if err != nil {
		return fmt.Errorf("couldn't create Telegram client: %w", err)
	}
	if _, err := tg.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("couldn't delete webhook: %w", err)
	}
	slog.InfoContext(ctx, "webhook deleted", slog.String("username", tg.Self.UserName))
	return nil
}

func cliConfig(ctx context.Context, cmd *cli.Command) (*Config, error) {
	r, err := os.Open(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("couldn't open config file: %w", err)
	}
	defer r.Close()
	cfg, _, err := Load(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("couldn't load config: %w", err)
	}
	return cfg, nil
}

var (
	flagConfig = cli.StringFlag{
		Name:       "config",
		Required:   true,
		Usage:      "TOML config file",
		Persistent: true,
		Action: func(ctx context.Context, cmd *cli.Command, s string) error {
			i, err := os.Stat(s)
			if err != nil {
				return err
			}
			if !i.Mode().IsRegular() {
				return errors.New("config must be a regular file")
			}
			return nil
		},
	}

	flagLog = cli.StringFlag{
		Name:       "log",
		Usage:      "Logging level, one of debug, info, warn, error",
		Value:      "info",
		Persistent: true,
		Action: func(ctx context.Context, c *cli.Command, s string) error {
			var l slog.Level
			return l.UnmarshalText([]byte(s))
		},
	}

	flagLogFormat = cli.StringFlag{
		Name:       "log-format",
		Usage:      "Logging format, either text or json",
		Value:      "text",
		Persistent: true,
		Action: func(ctx context.Context, c *cli.Command, s string) error {
			switch strings.ToLower(s) {
			case "text", "json":
				return nil
			default:
				return errors.New("unknown logging format")
			}
		},
	}
)

func loggerFromFlags(cmd *cli.Command) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(cmd.String("log"))); err != nil {
		panic(err)
	}
	var h slog.Handler
	switch strings.ToLower(cmd.String("log-format")) {
	case "text":
		h = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})
	case "json":
		h = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: l})
	}
	return slog.New(h)
}

// metrics configuration
func newMetrics() *metrics.Metrics {
	return &metrics.Metrics{
		UpdateCount: metrics.NewPromCounter(
			prometheus.NewCounter(
				prometheus.CounterOpts{
					Namespace: "haibot",
					Subsystem: "telegram",
					Name:      "updates",
					Help:      "Number of updates received from Telegram.",
				},
			),
		),
		CommandCount: metrics.NewPromCounter(
			prometheus.NewCounter(
				prometheus.CounterOpts{
					Namespace: "haibot",
					Subsystem: "telegram",
					Name:      "commands",
					Help:      "Number of command invocations received in chats.",
				},
			),
		),
		SentCount: metrics.NewPromCounter(
			prometheus.NewCounter(
				prometheus.CounterOpts{
					Namespace: "haibot",
					Subsystem: "telegram",
					Name:      "sent",
					Help:      "Number of messages delivered to Telegram.",
				},
			),
		),
		SendErrors: metrics.NewPromCounter(
			prometheus.NewCounter(
				prometheus.CounterOpts{
					Namespace: "haibot",
					Subsystem: "telegram",
					Name:      "send_errors",
					Help:      "Number of messages Telegram refused or failed to deliver.",
				},
			),
		),
		NotifyFanout: metrics.NewPromHistogram(
			prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
					Namespace: "haibot",
					Subsystem: "terraria",
					Name:      "notify_fanout",
					Help:      "How many subscribers each automatic notification went to.",
				},
			),
		),
		CommandLatency: metrics.NewPromObserverVec(
			prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Buckets:   []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1, 5, 10},
					Namespace: "haibot",
					Subsystem: "telegram",
					Name:      "command_latency",
					Help:      "How long command handling takes in seconds.",
				},
				[]string{"command"},
			),
		),
	}
}
