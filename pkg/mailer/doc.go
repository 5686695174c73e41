// Package mailer renders markdown email templates and delivers them
// through a pluggable Sender.
//
// Templates are markdown files with YAML frontmatter; the frontmatter's
// Subject key becomes the email subject and may interpolate template data.
// The markdown body is converted to HTML with goldmark and wrapped in an
// HTML layout; the processed markdown doubles as the plain-text part.
//
// # Usage
//
//	//go:embed templates
//	var templatesFS embed.FS
//
//	renderer := mailer.NewRendererWithConfig(templatesFS, mailer.RendererConfig{
//		TemplateDir: "templates",
//		LayoutDir:   "templates/layouts",
//	})
//	m := mailer.New(resend.New(resendCfg), renderer, cfg)
//
//	err := m.Send(ctx, mailer.SendParams{
//		To:       "owner@example.com",
//		Template: "domain_verified.md",
//		Data:     map[string]string{"Domain": "ourwedding.com"},
//	})
//
// # Buttons
//
// The markdown dialect supports [!button|Label](URL), rendered as an
// anchor with a btn class for layouts to style as a call-to-action.
package mailer
