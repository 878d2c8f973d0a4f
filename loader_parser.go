package inlineform

import (
	"context"
	"io/fs"

	"github.com/goliatone/go-inlineform/pkg/fielddef"
	"github.com/goliatone/go-inlineform/pkg/settings"
)

// LoadFieldDefinitions reads the inline reference fields declared in an
// OpenAPI document.
func LoadFieldDefinitions(ctx context.Context, data []byte) (*fielddef.Definitions, error) {
	return fielddef.Load(ctx, data)
}

// LoadSettings reads per-field widget settings from YAML or JSON files.
func LoadSettings(fsys fs.FS) (*settings.Store, error) {
	return settings.LoadFS(fsys)
}
