package mailer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTemplate(t *testing.T) {
	t.Parallel()

	t.Run("frontmatter and body", func(t *testing.T) {
		t.Parallel()

		tmpl, err := ParseTemplate([]byte("---\nSubject: Domain verified\nPreheader: Good news\n---\nBody **here**.\n"))
		require.NoError(t, err)
		require.Equal(t, "Domain verified", tmpl.Metadata["Subject"])
		require.Equal(t, "Good news", tmpl.Metadata["Preheader"])
		require.Equal(t, "Body **here**.\n", tmpl.Body)
	})

	t.Run("no frontmatter", func(t *testing.T) {
		t.Parallel()

		tmpl, err := ParseTemplate([]byte("Just a body.\n"))
		require.NoError(t, err)
		require.Empty(t, tmpl.Metadata)
		require.Equal(t, "Just a body.\n", tmpl.Body)
	})

	t.Run("windows line endings", func(t *testing.T) {
		t.Parallel()

		tmpl, err := ParseTemplate([]byte("---\r\nSubject: Hi\r\n---\r\nBody\r\n"))
		require.NoError(t, err)
		require.Equal(t, "Hi", tmpl.Metadata["Subject"])
		require.Equal(t, "Body\r\n", tmpl.Body)
	})

	t.Run("unclosed frontmatter", func(t *testing.T) {
		t.Parallel()

		_, err := ParseTemplate([]byte("---\nSubject: Hi\nBody"))
		require.ErrorIs(t, err, ErrInvalidFrontmatter)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		t.Parallel()

		_, err := ParseTemplate([]byte("---\n\t{bad yaml\n---\nBody"))
		require.ErrorIs(t, err, ErrInvalidFrontmatter)
	})
}
