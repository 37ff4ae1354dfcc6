// Package translate loads message translations from a directory of TOML
// locale files.
//
// Message keys are the English source strings, so a chat whose locale has no
// translation for a message, or no locale at all, reads English. A locale
// file is named by its code, e.g. es_ES.toml, and maps source strings to
// translated strings.
package translate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/language"
)

// Bundle is the set of loaded locales.
type Bundle struct {
	def     string
	locales map[string]map[string]string
	codes   []string
	matcher language.Matcher
}

// Load reads every *.toml file in dir as a locale. An empty dir yields an
// empty bundle, which translates every message to itself. def is the locale
// used when a chat has not chosen one; it need not exist as a file.
func Load(dir, def string) (*Bundle, error) {
	b := &Bundle{
		def:     def,
		locales: make(map[string]map[string]string),
	}
	if dir == "" {
		return b, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("couldn't read locale directory: %w", err)
	}
	var tags []language.Tag
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".toml") {
			continue
		}
		code := strings.TrimSuffix(name, ".toml")
		msgs := make(map[string]string)
		if _, err := toml.DecodeFile(filepath.Join(dir, name), &msgs); err != nil {
			return nil, fmt.Errorf("couldn't decode locale %s: %w", code, err)
		}
		b.locales[code] = msgs
		b.codes = append(b.codes, code)
		// Locale codes use gettext conventions like es_ES; BCP 47 wants
		// hyphens. Parse errors still give a usable best-effort tag.
		tag, _ := language.Parse(strings.ReplaceAll(code, "_", "-"))
		tags = append(tags, tag)
	}
	// ReadDir sorts by filename, so codes stay sorted and aligned with tags.
	if len(tags) > 0 {
		b.matcher = language.NewMatcher(tags)
	}
	return b, nil
}

// Codes returns the codes of every loaded locale, sorted.
func (b *Bundle) Codes() []string {
	return b.codes
}

// Has reports whether a locale with exactly the given code was loaded.
func (b *Bundle) Has(code string) bool {
	_, ok := b.locales[code]
	return ok
}

// Default returns the bundle's default locale code.
func (b *Bundle) Default() string {
	return b.def
}

// Locale resolves a chat's locale code to a Locale. An empty or unknown code
// falls back to the default locale; lookups that miss there fall back to the
// message key itself.
func (b *Bundle) Locale(code string) *Locale {
	fall := b.locales[b.def]
	if code == "" {
		return &Locale{code: b.def, msgs: fall}
	}
	if msgs, ok := b.locales[code]; ok {
		return &Locale{code: code, msgs: msgs, fall: fall}
	}
	if b.matcher != nil {
		if tag, err := language.Parse(strings.ReplaceAll(code, "_", "-")); err == nil {
			_, i, conf := b.matcher.Match(tag)
			if conf >= language.High {
				c := b.codes[i]
				return &Locale{code: c, msgs: b.locales[c], fall: fall}
			}
		}
	}
	return &Locale{code: b.def, msgs: fall}
}

// Locale translates messages for one locale.
type Locale struct {
	code string
	msgs map[string]string
	fall map[string]string
}

// Code returns the resolved locale code.
func (l *Locale) Code() string {
	return l.code
}

// Text translates a message, falling back to the default locale and then to
// the message itself.
func (l *Locale) Text(key string) string {
	if s, ok := l.msgs[key]; ok {
		return s
	}
	if s, ok := l.fall[key]; ok {
		return s
	}
	return key
}

// Textf translates a format string and applies its arguments.
func (l *Locale) Textf(key string, args ...any) string {
	return fmt.Sprintf(l.Text(key), args...)
}
