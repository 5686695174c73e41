package store_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/domainforge/internal/store"
)

func TestDomainRecordExpired(t *testing.T) {
	t.Parallel()

	deadline := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := &store.DomainRecord{ExpiresAt: deadline}

	require.False(t, rec.Expired(deadline.Add(-time.Hour)))
	require.False(t, rec.Expired(deadline), "the deadline itself is still inside the window")
	require.True(t, rec.Expired(deadline.Add(time.Second)))
}

func TestDomainRecordAttemptsExhausted(t *testing.T) {
	t.Parallel()

	rec := &store.DomainRecord{VerificationAttempts: 4, MaxVerificationAttempts: 5}
	require.False(t, rec.AttemptsExhausted())

	rec.VerificationAttempts = 5
	require.True(t, rec.AttemptsExhausted())

	rec.VerificationAttempts = 6
	require.True(t, rec.AttemptsExhausted())
}
