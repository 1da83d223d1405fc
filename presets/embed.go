// Package presets embeds the bundled scan profiles selected with
// --profile. Each profile is a partial config file layered over the
// built-in defaults.
//
// Usage:
//
//	data, _ := presets.FS.ReadFile("deep.yaml")
package presets

import "embed"

// FS contains the bundled profile YAML files.
//
//go:embed *.yaml
var FS embed.FS
