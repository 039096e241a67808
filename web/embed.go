package web

import "embed"

// Templates embeds the filing document templates.
//
//go:embed templates/documents/*.html
var Templates embed.FS
