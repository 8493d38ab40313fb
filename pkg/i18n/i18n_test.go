package i18n

import (
	"testing"
	"testing/fstest"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	fsys := fstest.MapFS{
		"en.json": {Data: []byte(`{"greet": {"hello": "Hello {{name}}"}, "only": {"en": "english"}}`)},
		"tr.json": {Data: []byte(`{"greet": {"hello": "Merhaba {{name}}"}}`)},
	}
	c, err := Load(fsys)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	return c
}

func TestLocalizerFallbacks(t *testing.T) {
	c := testCatalog(t)

	tests := []struct {
		lang string
		key  string
		want string
	}{
		{"tr", "greet.hello", "Merhaba {{name}}"},
		{"tr-TR", "greet.hello", "Merhaba {{name}}"},
		{"tr", "only.en", "english"},
		{"de", "greet.hello", "Hello {{name}}"},
		{"en", "missing.key", "missing.key"},
	}

	for _, tt := range tests {
		t.Run(tt.lang+"/"+tt.key, func(t *testing.T) {
			if got := c.Localizer(tt.lang).T(tt.key); got != tt.want {
				t.Errorf("T(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestTWithParams(t *testing.T) {
	c := testCatalog(t)
	got := c.Localizer("en").TWithParams("greet.hello", map[string]string{"name": "Ada"})
	if got != "Hello Ada" {
		t.Errorf("TWithParams() = %q", got)
	}
}

func TestLoadRequiresDefaultLanguage(t *testing.T) {
	_, err := Load(fstest.MapFS{"tr.json": {Data: []byte(`{}`)}})
	if err == nil {
		t.Fatal("expected an error without en.json")
	}
}

func TestEmbeddedLocalesAreComplete(t *testing.T) {
	c, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded() error: %v", err)
	}

	en := c.translations["en"]
	for _, lang := range c.Languages() {
		for key := range en {
			if _, ok := c.translations[lang][key]; !ok {
				t.Errorf("%s.json is missing key %q", lang, key)
			}
		}
	}
}
