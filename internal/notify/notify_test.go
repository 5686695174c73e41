package notify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/domainforge/internal/notify"
	"github.com/dmitrymomot/domainforge/internal/notify/templates"
	"github.com/dmitrymomot/domainforge/internal/store"
	"github.com/dmitrymomot/domainforge/pkg/mailer"
)

type captureSender struct {
	email *mailer.Email
	err   error
}

func (s *captureSender) Send(_ context.Context, email *mailer.Email) error {
	if s.err != nil {
		return s.err
	}
	s.email = email
	return nil
}

// lookupStore serves the two reads the notifier performs. Everything
// else panics through the embedded interface.
type lookupStore struct {
	store.Store

	record     *store.DomainRecord
	recordErr  error
	project    *store.Project
	projectErr error
}

func (s *lookupStore) GetDomainRecord(_ context.Context, _ uuid.UUID) (*store.DomainRecord, error) {
	if s.recordErr != nil {
		return nil, s.recordErr
	}
	return s.record, nil
}

func (s *lookupStore) GetProject(_ context.Context, _ uuid.UUID) (*store.Project, error) {
	if s.projectErr != nil {
		return nil, s.projectErr
	}
	return s.project, nil
}

func newNotifier(t *testing.T, st store.Store, sender mailer.Sender, opts ...notify.Option) *notify.Notifier {
	t.Helper()
	m := mailer.New(sender, mailer.NewRenderer(templates.FS), mailer.Config{
		FallbackSubject: "Notification",
		DefaultLayout:   "base.html",
	})
	return notify.New(st, m, opts...)
}

func testRecord() (*store.DomainRecord, *store.Project) {
	project := &store.Project{
		ID:         uuid.New(),
		OwnerEmail: "owner@example.com",
		Subdomain:  "ourwedding",
	}
	record := &store.DomainRecord{
		ID:                      uuid.New(),
		ProjectID:               project.ID,
		CustomDomain:            "ourwedding.com",
		Status:                  store.StatusPending,
		VerificationAttempts:    2,
		MaxVerificationAttempts: 5,
	}
	return record, project
}

func TestSendOutcome(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("verified outcome emails the owner", func(t *testing.T) {
		t.Parallel()

		record, project := testRecord()
		sender := &captureSender{}
		n := newNotifier(t, &lookupStore{record: record, project: project}, sender)

		err := n.SendOutcome(ctx, record.ID, "ourwedding.com", true, "")
		require.NoError(t, err)
		require.NotNil(t, sender.email)

		require.Equal(t, []string{"owner@example.com"}, sender.email.To)
		require.Equal(t, "ourwedding.com is now live", sender.email.Subject)
		require.Contains(t, sender.email.HTML, "<strong>ourwedding.com</strong>")
		require.Contains(t, sender.email.HTML, `<a href="https://ourwedding.com" class="btn">Open your site</a>`)
		require.Contains(t, sender.email.Text, "**ourwedding.com**")
	})

	t.Run("failed outcome names the reason and attempt budget", func(t *testing.T) {
		t.Parallel()

		record, project := testRecord()
		sender := &captureSender{}
		n := newNotifier(t, &lookupStore{record: record, project: project}, sender,
			notify.WithDashboardURL("https://dash.example.com/"))

		err := n.SendOutcome(ctx, record.ID, "ourwedding.com", false, "verification TXT record not found")
		require.NoError(t, err)
		require.NotNil(t, sender.email)

		require.Equal(t, "Action needed: ourwedding.com could not be verified", sender.email.Subject)
		require.Contains(t, sender.email.HTML, "verification TXT record not found")
		require.Contains(t, sender.email.HTML, "attempt 2 of 5")
		require.Contains(t, sender.email.HTML,
			`<a href="https://dash.example.com/domains/`+record.ID.String()+`" class="btn">Review DNS settings</a>`)
	})

	t.Run("deleted record is skipped without error", func(t *testing.T) {
		t.Parallel()

		sender := &captureSender{}
		n := newNotifier(t, &lookupStore{recordErr: store.ErrNotFound}, sender)

		err := n.SendOutcome(ctx, uuid.New(), "ourwedding.com", true, "")
		require.NoError(t, err)
		require.Nil(t, sender.email)
	})

	t.Run("missing project is skipped without error", func(t *testing.T) {
		t.Parallel()

		record, _ := testRecord()
		sender := &captureSender{}
		n := newNotifier(t, &lookupStore{record: record, projectErr: store.ErrNotFound}, sender)

		err := n.SendOutcome(ctx, record.ID, "ourwedding.com", true, "")
		require.NoError(t, err)
		require.Nil(t, sender.email)
	})

	t.Run("project without an owner email is skipped", func(t *testing.T) {
		t.Parallel()

		record, project := testRecord()
		project.OwnerEmail = ""
		sender := &captureSender{}
		n := newNotifier(t, &lookupStore{record: record, project: project}, sender)

		err := n.SendOutcome(ctx, record.ID, "ourwedding.com", true, "")
		require.NoError(t, err)
		require.Nil(t, sender.email)
	})

	t.Run("store failures surface for retry", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		n := newNotifier(t, &lookupStore{recordErr: boom}, &captureSender{})

		err := n.SendOutcome(ctx, uuid.New(), "ourwedding.com", true, "")
		require.ErrorIs(t, err, boom)
	})

	t.Run("delivery failures surface for retry", func(t *testing.T) {
		t.Parallel()

		record, project := testRecord()
		boom := errors.New("smtp down")
		n := newNotifier(t, &lookupStore{record: record, project: project}, &captureSender{err: boom})

		err := n.SendOutcome(ctx, record.ID, "ourwedding.com", true, "")
		require.ErrorIs(t, err, boom)
		require.ErrorIs(t, err, mailer.ErrSendFailed)
	})
}
