package beatssuda

import "embed"

//go:embed static internal/public/templates
var Files embed.FS
