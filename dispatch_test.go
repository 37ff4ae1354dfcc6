package main

import "testing"

func TestParseCommand(t *testing.T) {
	cases := []struct {
		name string
		in   string
		cmd  string
		args string
	}{
		{"empty", "", "", ""},
		{"plain", "hello there", "", ""},
		{"bare", "/start", "start", ""},
		{"case", "/StArT", "start", ""},
		{"prespace", "  /start", "start", ""},
		{"args", "/terraria on 1.2.3.4", "terraria", "on 1.2.3.4"},
		{"argspace", "/terraria   on", "terraria", "on"},
		{"mention", "/start@haibot", "start", ""},
		{"mention-args", "/terraria@haibot log 3", "terraria", "log 3"},
		{"slash-only", "/", "", ""},
		{"mid-slash", "not /start", "", ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cmd, args := parseCommand(c.in)
			if cmd != c.cmd {
				t.Errorf("wrong command name: want %q, got %q", c.cmd, cmd)
			}
			if args != c.args {
				t.Errorf("wrong args: want %q, got %q", c.args, args)
			}
		})
	}
}

func TestFindCommand(t *testing.T) {
	for name, want := range map[string]string{
		"start":    "start",
		"t":        "terraria",
		"terraria": "terraria",
		"h":        "help",
		"bogus":    "unknown",
	} {
		c := findCommand(name)
		if c == nil {
			t.Fatalf("no command for %q", name)
		}
		if c.name != want {
			t.Errorf("wrong command for %q: want %q, got %q", name, want, c.name)
		}
	}
}
