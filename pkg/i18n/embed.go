package i18n

import (
	"embed"
	"io/fs"
)

//go:embed locales/*.json
var embeddedLocales embed.FS

// LoadEmbedded loads the translations compiled into the binary.
func LoadEmbedded() (*Catalog, error) {
	sub, err := fs.Sub(embeddedLocales, "locales")
	if err != nil {
		return nil, err
	}
	return Load(sub)
}
