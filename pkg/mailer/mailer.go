package mailer

import (
	"bytes"
	"context"
	"errors"
	texttemplate "text/template"
)

// Sender is the minimal interface an email provider must implement.
type Sender interface {
	Send(ctx context.Context, email *Email) error
}

// Email is a fully-prepared message ready for delivery.
type Email struct {
	To      []string
	Subject string
	HTML    string
	Text    string
	From    string // overrides the provider default when set
	ReplyTo string
}

// Config holds mailer configuration.
// Embed this in the app config for env parsing with caarlos0/env.
type Config struct {
	FallbackSubject string `env:"MAILER_FALLBACK_SUBJECT" envDefault:"Notification"`
	DefaultLayout   string `env:"MAILER_DEFAULT_LAYOUT" envDefault:"base.html"`
}

// Mailer renders markdown templates and hands the result to a Sender.
type Mailer struct {
	sender   Sender
	renderer *Renderer
	config   Config
}

// New creates a Mailer with the given sender and renderer.
func New(sender Sender, renderer *Renderer, cfg Config) *Mailer {
	return &Mailer{sender: sender, renderer: renderer, config: cfg}
}

// SendParams describes one templated email.
type SendParams struct {
	To       string
	Template string // template filename, e.g. "domain_verified.md"
	Data     any

	Subject string // overrides the template's frontmatter subject
	ReplyTo string
}

// Send renders a template and delivers the email.
// Subject resolution: params.Subject, then frontmatter, then config fallback.
func (m *Mailer) Send(ctx context.Context, params SendParams) error {
	if params.To == "" {
		return ErrNoRecipient
	}

	result, err := m.renderer.Render(m.config.DefaultLayout, params.Template, params.Data)
	if err != nil {
		return errors.Join(ErrRenderFailed, err)
	}

	subject := params.Subject
	if subject == "" {
		if fromMeta, ok := result.Metadata["Subject"].(string); ok {
			subject = fromMeta
		} else {
			subject = m.config.FallbackSubject
		}
	}

	// Subjects may interpolate template data ("{{.Domain}} is live").
	subject, err = renderSubject(subject, params.Data)
	if err != nil {
		return errors.Join(ErrRenderFailed, err)
	}

	email := &Email{
		To:      []string{params.To},
		Subject: subject,
		HTML:    result.HTML,
		Text:    result.Text,
		ReplyTo: params.ReplyTo,
	}

	if err := m.sender.Send(ctx, email); err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	return nil
}

func renderSubject(subject string, data any) (string, error) {
	tmpl, err := texttemplate.New("subject").Parse(subject)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
