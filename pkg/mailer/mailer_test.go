package mailer

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

type captureSender struct {
	email *Email
	err   error
}

func (s *captureSender) Send(_ context.Context, email *Email) error {
	if s.err != nil {
		return s.err
	}
	s.email = email
	return nil
}

func testRenderer() *Renderer {
	fs := fstest.MapFS{
		"layouts/base.html": &fstest.MapFile{
			Data: []byte(`<html><body>{{.Content}}</body></html>`),
		},
		"domain_verified.md": &fstest.MapFile{
			Data: []byte(`---
Subject: "{{.Domain}} is verified"
---
Your custom domain **{{.Domain}}** now serves your site.

[!button|Open dashboard]({{.DashboardURL}})
`),
		},
		"no_subject.md": &fstest.MapFile{
			Data: []byte(`Plain notification body.`),
		},
	}
	return NewRendererWithConfig(fs, RendererConfig{LayoutDir: "layouts"})
}

func TestMailer_Send(t *testing.T) {
	t.Parallel()

	cfg := Config{FallbackSubject: "Notification", DefaultLayout: "base.html"}

	t.Run("renders template and resolves subject from frontmatter", func(t *testing.T) {
		t.Parallel()

		sender := &captureSender{}
		m := New(sender, testRenderer(), cfg)

		err := m.Send(context.Background(), SendParams{
			To:       "owner@example.com",
			Template: "domain_verified.md",
			Data: map[string]string{
				"Domain":       "ourwedding.com",
				"DashboardURL": "https://domainforge.app/dashboard",
			},
		})
		require.NoError(t, err)
		require.NotNil(t, sender.email)

		require.Equal(t, []string{"owner@example.com"}, sender.email.To)
		require.Equal(t, "ourwedding.com is verified", sender.email.Subject)
		require.Contains(t, sender.email.HTML, "<strong>ourwedding.com</strong>")
		require.Contains(t, sender.email.HTML, `<a href="https://domainforge.app/dashboard" class="btn">Open dashboard</a>`)
		require.Contains(t, sender.email.Text, "**ourwedding.com**")
	})

	t.Run("explicit subject wins over frontmatter", func(t *testing.T) {
		t.Parallel()

		sender := &captureSender{}
		m := New(sender, testRenderer(), cfg)

		err := m.Send(context.Background(), SendParams{
			To:       "owner@example.com",
			Template: "domain_verified.md",
			Subject:  "Action needed",
			Data:     map[string]string{"Domain": "x.com", "DashboardURL": "https://x"},
		})
		require.NoError(t, err)
		require.Equal(t, "Action needed", sender.email.Subject)
	})

	t.Run("falls back to the configured subject", func(t *testing.T) {
		t.Parallel()

		sender := &captureSender{}
		m := New(sender, testRenderer(), cfg)

		err := m.Send(context.Background(), SendParams{
			To:       "owner@example.com",
			Template: "no_subject.md",
		})
		require.NoError(t, err)
		require.Equal(t, "Notification", sender.email.Subject)
	})

	t.Run("missing recipient", func(t *testing.T) {
		t.Parallel()

		m := New(&captureSender{}, testRenderer(), cfg)
		err := m.Send(context.Background(), SendParams{Template: "no_subject.md"})
		require.ErrorIs(t, err, ErrNoRecipient)
	})

	t.Run("unknown template", func(t *testing.T) {
		t.Parallel()

		m := New(&captureSender{}, testRenderer(), cfg)
		err := m.Send(context.Background(), SendParams{
			To:       "owner@example.com",
			Template: "missing.md",
		})
		require.ErrorIs(t, err, ErrTemplateNotFound)
	})

	t.Run("sender failures are wrapped", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("provider down")
		m := New(&captureSender{err: boom}, testRenderer(), cfg)
		err := m.Send(context.Background(), SendParams{
			To:       "owner@example.com",
			Template: "no_subject.md",
		})
		require.ErrorIs(t, err, ErrSendFailed)
		require.ErrorIs(t, err, boom)
	})
}
