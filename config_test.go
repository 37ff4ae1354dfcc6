package main_test

import (
	"context"
	_ "embed"
	"strings"
	"testing"

	main "github.com/aracnido/haibot"
)

//go:embed example.toml
var exampleToml string

func eqcase[T comparable](t *testing.T, name string, val T, eq T) {
	t.Helper()
	if val != eq {
		t.Errorf("wrong %s: want %#v, got %#v", name, eq, val)
	}
}

func TestExampleConfig(t *testing.T) {
	cfg, _, err := main.Load(context.Background(), strings.NewReader(exampleToml))
	if err != nil {
		t.Errorf("failed to load example.toml: %v", err)
	}

	eqcase(t, "Owner.ID", cfg.Owner.ID, int64(51421897))
	eqcase(t, "Owner.Name", cfg.Owner.Name, `aracnido`)
	eqcase(t, "Owner.Contact", cfg.Owner.Contact, `t.me/aracnido`)
	eqcase(t, "DB.KVFlag", cfg.DB.KVFlag, "")
	eqcase(t, "HTTP.Listen", cfg.HTTP.Listen, ":4959")
	eqcase(t, "Telegram.Webhook", cfg.Telegram.Webhook, `https://bot.example.org`)
	eqcase(t, "Telegram.Poll", cfg.Telegram.Poll, float64(30))
	eqcase(t, "Telegram.Rate.Every", cfg.Telegram.Rate.Every, float64(1))
	eqcase(t, "Telegram.Rate.Num", cfg.Telegram.Rate.Num, 30)
	eqcase(t, "Locale.Default", cfg.Locale.Default, `en_EN`)
	eqcase(t, "Timezone", cfg.Timezone, `Europe/Madrid`)
	eqcase(t, "Quotes[cake]", cfg.Quotes[`The cake is a lie.`], 2)
	eqcase(t, "Quotes[listen]", cfg.Quotes[`Stay awhile and listen!`], 1)
	substrings := []struct {
		name string
		val  string
		has  string
	}{
		{"SecretFile", cfg.SecretFile, "/key"},
		{"DB.Sessions", cfg.DB.Sessions, "/sessions"},
		{"DB.Terraria", cfg.DB.Terraria, "file:"},
		{"Telegram.TokenFile", cfg.Telegram.TokenFile, "/telegram_token"},
		{"Locale.Dir", cfg.Locale.Dir, "/locales"},
	}
	for _, c := range substrings {
		if !strings.Contains(c.val, c.has) {
			t.Errorf("wrong %s: %q does not contain %q", c.name, c.val, c.has)
		}
	}
}
