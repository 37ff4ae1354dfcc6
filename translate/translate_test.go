package translate_test

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/aracnido/haibot/translate"
)

func testBundle(t *testing.T) *translate.Bundle {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"es_ES.toml": "\"There is no IP\" = \"No hay IP\"\n\"Hello, %s\" = \"Hola, %s\"\n",
		"eo_XX.toml": "\"There is no IP\" = \"Ne estas IP\"\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	b, err := translate.Load(dir, "en_EN")
	if err != nil {
		t.Fatalf("couldn't load bundle: %v", err)
	}
	return b
}

func TestLoad(t *testing.T) {
	b := testBundle(t)
	want := []string{"eo_XX", "es_ES"}
	if !slices.Equal(b.Codes(), want) {
		t.Errorf("wrong codes: want %v, got %v", want, b.Codes())
	}
	if !b.Has("es_ES") {
		t.Errorf("bundle claims not to have es_ES")
	}
	if b.Has("en_EN") {
		t.Errorf("bundle claims to have en_EN with no file for it")
	}
}

func TestText(t *testing.T) {
	b := testBundle(t)
	cases := []struct {
		name string
		code string
		key  string
		want string
	}{
		{name: "translated", code: "es_ES", key: "There is no IP", want: "No hay IP"},
		{name: "missing-key", code: "es_ES", key: "There is no Log History", want: "There is no Log History"},
		{name: "default-locale", code: "", key: "There is no IP", want: "There is no IP"},
		{name: "unknown-code", code: "zz_ZZ", key: "There is no IP", want: "There is no IP"},
		{name: "matched-region", code: "es", key: "There is no IP", want: "No hay IP"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := b.Locale(c.code).Text(c.key)
			if got != c.want {
				t.Errorf("wrong text for %q in %q: want %q, got %q", c.key, c.code, c.want, got)
			}
		})
	}
}

func TestTextf(t *testing.T) {
	b := testBundle(t)
	if got, want := b.Locale("es_ES").Textf("Hello, %s", "bocchi"), "Hola, bocchi"; got != want {
		t.Errorf("wrong formatted text: want %q, got %q", want, got)
	}
}

func TestEmptyBundle(t *testing.T) {
	b, err := translate.Load("", "en_EN")
	if err != nil {
		t.Fatalf("couldn't load empty bundle: %v", err)
	}
	if got := b.Locale("es_ES").Text("There is no IP"); got != "There is no IP" {
		t.Errorf("empty bundle translated %q", got)
	}
}
