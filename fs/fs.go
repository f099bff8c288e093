package appfs

import "embed"

// FS holds the static assets shipped with the binary: goose migrations
// and email templates.
//go:embed migrations templates
var FS embed.FS
