// Package i18n renders the user-facing notification texts in the viewer's
// language.
//
// Translations live in one JSON file per language (locales/en.json, ...).
// Nested objects are flattened to dot keys:
//
//	{"membership": {"added": "..."}} → "membership.added"
//
// Templates use {{name}} placeholders:
//
//	loc := catalog.Localizer("tr")
//	loc.TWithParams("membership.added", map[string]string{"board": "Roadmap"})
package i18n

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// DefaultLanguage is used when the requested language has no translations.
const DefaultLanguage = "en"

// Catalog holds every loaded language. It is read-only after Load.
type Catalog struct {
	translations map[string]map[string]string
}

// Load reads every <lang>.json file at the root of localesFS.
// The default language must be present.
func Load(localesFS fs.FS) (*Catalog, error) {
	entries, err := fs.ReadDir(localesFS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read locales: %w", err)
	}

	c := &Catalog{translations: make(map[string]map[string]string)}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}

		data, err := fs.ReadFile(localesFS, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read translation file %s: %w", name, err)
		}

		var nested map[string]any
		if err := json.Unmarshal(data, &nested); err != nil {
			return nil, fmt.Errorf("failed to parse translation file %s: %w", name, err)
		}

		flat := make(map[string]string)
		flattenMap("", nested, flat)
		c.translations[strings.TrimSuffix(name, ".json")] = flat
	}

	if _, ok := c.translations[DefaultLanguage]; !ok {
		return nil, fmt.Errorf("missing translations for default language %q", DefaultLanguage)
	}
	return c, nil
}

// Languages returns the loaded language codes, sorted.
func (c *Catalog) Languages() []string {
	langs := make([]string, 0, len(c.translations))
	for lang := range c.translations {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Localizer returns a translator for lang. "tr-TR" and "tr_TR" resolve to
// "tr"; unknown languages fall back to DefaultLanguage.
func (c *Catalog) Localizer(lang string) *Localizer {
	lang = normalize(lang)
	if _, ok := c.translations[lang]; !ok {
		lang = DefaultLanguage
	}
	return &Localizer{catalog: c, lang: lang}
}

// Localizer translates keys for one language.
type Localizer struct {
	catalog *Catalog
	lang    string
}

// Lang returns the resolved language code.
func (l *Localizer) Lang() string {
	return l.lang
}

// T returns the text for key: the localizer's language first, then the
// default language, then the key itself.
func (l *Localizer) T(key string) string {
	if msg, ok := l.catalog.translations[l.lang][key]; ok {
		return msg
	}
	if msg, ok := l.catalog.translations[DefaultLanguage][key]; ok {
		return msg
	}
	return key
}

// TWithParams translates key and substitutes {{param}} placeholders.
func (l *Localizer) TWithParams(key string, params map[string]string) string {
	msg := l.T(key)
	for k, v := range params {
		msg = strings.ReplaceAll(msg, "{{"+k+"}}", v)
	}
	return msg
}

// ─── Helpers ───

func normalize(lang string) string {
	lang = strings.TrimSpace(strings.ToLower(lang))
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}
	return lang
}

func flattenMap(prefix string, src map[string]any, dst map[string]string) {
	for k, v := range src {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		switch val := v.(type) {
		case string:
			dst[key] = val
		case map[string]any:
			flattenMap(key, val, dst)
		}
	}
}
