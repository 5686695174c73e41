// Package templates embeds the outcome notification emails.
package templates

import "embed"

// FS holds the email templates: markdown bodies at the root, shared
// layouts under layouts/. Pass it to mailer.NewRenderer.
//
//go:embed *.md layouts/*.html
var FS embed.FS
