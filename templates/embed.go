// Package templates embeds the bundled report templates.
//
// The template writer falls back to these when no template file is
// given:
//
//	data, _ := templates.FS.ReadFile("output/summary.tmpl")
package templates

import "embed"

// FS holds output/*.tmpl, one file per built-in template name.
//
//go:embed output/*.tmpl
var FS embed.FS
