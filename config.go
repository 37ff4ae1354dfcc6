package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gitlab.com/zephyrtronium/pick"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"
	"golang.org/x/time/rate"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/aracnido/haibot/autonot"
	"github.com/aracnido/haibot/session"
	"github.com/aracnido/haibot/terraria"
	"github.com/aracnido/haibot/translate"
	"github.com/aracnido/haibot/updates"
)

// Load loads Haibot from a TOML configuration.
func Load(ctx context.Context, r io.Reader) (*Config, *toml.MetaData, error) {
	var cfg Config
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't decode config: %w", err)
	}
	expandcfg(&cfg, os.Getenv)
	return &cfg, &md, nil
}

// SetOwner sets owner metadata used for privileged commands and
// self-description.
func (robo *Bot) SetOwner(owner Owner) {
	robo.owner = owner.ID
	robo.ownerName = owner.Name
	robo.ownerContact = owner.Contact
}

// SetSecrets loads the bot's fixed secret and initializes derived secrets.
func (robo *Bot) SetSecrets(file string) error {
	k, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("couldn't read secret key: %w", err)
	}
	wk := domainkey(make([]byte, 32), k, []byte("telegram.webhook"))
	robo.secrets = &keys{
		webhook: hex.EncodeToString(wk),
	}
	return nil
}

// SetSources opens the session store and the Terraria service around the
// respective databases. Use [loadDBs] to open the databases themselves from
// DSNs.
func (robo *Bot) SetSources(ctx context.Context, kv *badger.DB, pool *sqlitex.Pool, tz *time.Location) error {
	if tz == nil {
		tz = time.UTC
	}
	robo.tz = tz
	robo.sessions = session.NewStore(kv)
	log, err := updates.Open(ctx, pool)
	if err != nil {
		return fmt.Errorf("couldn't open update log: %w", err)
	}
	subs, err := autonot.Open(ctx, pool)
	if err != nil {
		return fmt.Errorf("couldn't open autonot list: %w", err)
	}
	robo.terraria, err = terraria.New(ctx, log, subs, tz)
	if err != nil {
		return fmt.Errorf("couldn't open Terraria service: %w", err)
	}
	return nil
}

// SetTranslations loads message translations and the quote distribution.
func (robo *Bot) SetTranslations(cfg LocaleCfg, quotes map[string]int) error {
	tr, err := translate.Load(cfg.Dir, cfg.Default)
	if err != nil {
		return fmt.Errorf("couldn't load translations: %w", err)
	}
	robo.translations = tr
	if len(quotes) > 0 {
		robo.quotes = pick.New(pick.FromMap(quotes))
	}
	return nil
}

// InitTelegram initializes the Telegram client. It must be called after
// SetSecrets when a webhook is configured.
func (robo *Bot) InitTelegram(ctx context.Context, cfg TelegramCfg) error {
	tok, err := loadToken(cfg.TokenFile)
	if err != nil {
		return err
	}
	tg, err := tgbotapi.NewBotAPI(tok)
	if err != nil {
		return fmt.Errorf("couldn't create Telegram client: %w", err)
	}
	slog.InfoContext(ctx, "Telegram login", slog.String("username", tg.Self.UserName))
	robo.tg = tg
	robo.webhook = strings.TrimRight(cfg.Webhook, "/")
	robo.poll = int(cfg.Poll)
	if robo.poll <= 0 {
		robo.poll = 30
	}
	every := cfg.Rate.Every
	num := cfg.Rate.Num
	if num <= 0 {
		// Telegram allows roughly thirty messages per second overall.
		every, num = 1, 30
	}
	robo.rate = rate.NewLimiter(rate.Every(fseconds(every)), num)
	return nil
}

// loadToken reads a Telegram bot token from a file.
func loadToken(file string) (string, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("couldn't read Telegram token: %w", err)
	}
	tok := strings.TrimSpace(string(b))
	if tok == "" {
		return "", fmt.Errorf("empty Telegram token in %s", file)
	}
	return tok, nil
}

func loadDBs(ctx context.Context, cfg DBCfg) (kv *badger.DB, pool *sqlitex.Pool, err error) {
	if cfg.Sessions == "" {
		return nil, nil, fmt.Errorf("no sessions db configured")
	}
	if cfg.Terraria == "" {
		return nil, nil, fmt.Errorf("no terraria db configured")
	}
	slog.DebugContext(ctx, "sessions db", slog.String("path", cfg.Sessions), slog.String("flags", cfg.KVFlag))
	opts := badger.DefaultOptions(cfg.Sessions)
	opts = opts.WithLogger(nil)
	opts = opts.WithCompression(options.None)
	opts = opts.WithBloomFalsePositive(0)
	kv, err = badger.Open(opts.FromSuperFlag(cfg.KVFlag))
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't open sessions db: %w", err)
	}
	slog.DebugContext(ctx, "terraria db", slog.String("path", cfg.Terraria))
	pool, err = sqlitex.NewPool(cfg.Terraria, sqlitex.PoolOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't open terraria db: %w", err)
	}
	if err := updates.Init(ctx, pool); err != nil {
		return nil, nil, fmt.Errorf("couldn't init update log: %w", err)
	}
	if err := autonot.Init(ctx, pool); err != nil {
		return nil, nil, fmt.Errorf("couldn't init autonot list: %w", err)
	}
	return kv, pool, nil
}

func fseconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

type keys struct {
	// webhook is the secret path component for the Telegram webhook route.
	webhook string
}

// domainkey fills o with a key derived from k for the given domain. Panics if
// a key cannot be expanded.
func domainkey(o, k, domain []byte) []byte {
	kr := hkdf.Expand(sha3.New224, k, domain)
	if _, err := io.ReadFull(kr, o); err != nil {
		panic(err)
	}
	return o
}

// Config is the marshaled structure of Haibot's configuration.
type Config struct {
	// SecretFile is the path to a file containing a secret key used to derive
	// the webhook route secret.
	SecretFile string `toml:"secret"`
	// Owner is the table of metadata about the owner.
	Owner Owner `toml:"owner"`
	// DB is the table of database connection strings.
	DB DBCfg `toml:"db"`
	// HTTP is the HTTP server configuration.
	HTTP HTTPCfg `toml:"http"`
	// Telegram is the configuration for connecting to Telegram.
	Telegram TelegramCfg `toml:"telegram"`
	// Locale is the message translation configuration.
	Locale LocaleCfg `toml:"locale"`
	// Timezone is the IANA timezone name used to format log timestamps.
	Timezone string `toml:"timezone"`
	// Quotes is quotes and their weights for the quote command.
	Quotes map[string]int `toml:"quotes"`
}

// Owner is metadata about the bot owner.
type Owner struct {
	// ID is the Telegram chat ID of the owner. Privileged commands are
	// accepted from this chat only.
	ID int64 `toml:"id"`
	// Name is the name of the owner. It does not need to be a username.
	Name string `toml:"name"`
	// Contact describes owner contact information.
	Contact string `toml:"contact"`
}

// TelegramCfg is the configuration for connecting to Telegram.
type TelegramCfg struct {
	// TokenFile is the path to a file containing the bot token.
	TokenFile string `toml:"token"`
	// Webhook is the public base URL at which Telegram can reach the bot's
	// HTTP server. When empty, the bot long polls instead.
	Webhook string `toml:"webhook"`
	// Poll is the long polling timeout in seconds.
	Poll float64 `toml:"poll"`
	// Rate is the global send rate limit.
	Rate Rate `toml:"rate"`
}

// DBCfg is the configuration of databases.
type DBCfg struct {
	// Sessions is the directory of the conversation session store.
	Sessions string `toml:"sessions"`
	// KVFlag is a badger superflag applied to the session store.
	KVFlag string `toml:"kvflag"`
	// Terraria is the DSN of the Terraria status log database.
	Terraria string `toml:"terraria"`
}

// HTTPCfg is the HTTP server configuration.
type HTTPCfg struct {
	Listen string `toml:"listen"`
}

// LocaleCfg is the message translation configuration.
type LocaleCfg struct {
	// Dir is the directory holding locale TOML files.
	Dir string `toml:"dir"`
	// Default is the locale used by chats which have not chosen one.
	Default string `toml:"default"`
}

// Rate is a rate limit configuration.
type Rate struct {
	Every float64 `toml:"every"`
	Num   int     `toml:"num"`
}

func expandcfg(cfg *Config, expand func(s string) string) {
	fields := []*string{
		&cfg.SecretFile,
		&cfg.Owner.Name,
		&cfg.Owner.Contact,
		&cfg.DB.Sessions,
		&cfg.DB.KVFlag,
		&cfg.DB.Terraria,
		&cfg.HTTP.Listen,
		&cfg.Telegram.TokenFile,
		&cfg.Telegram.Webhook,
		&cfg.Locale.Dir,
		&cfg.Locale.Default,
		&cfg.Timezone,
	}
	for _, f := range fields {
		*f = os.Expand(*f, expand)
	}
}
