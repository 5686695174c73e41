package mailer

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Template is a parsed email template: YAML frontmatter plus markdown body.
type Template struct {
	Metadata map[string]any
	Body     string
}

// ParseTemplate splits template content into frontmatter metadata and body.
// Content without a leading "---" delimiter is treated as body-only.
func ParseTemplate(content []byte) (*Template, error) {
	delimiter := []byte("---")

	if !bytes.HasPrefix(content, delimiter) {
		return &Template{
			Metadata: make(map[string]any),
			Body:     string(content),
		}, nil
	}

	rest := bytes.TrimPrefix(content, delimiter)
	rest = bytes.TrimLeft(rest, "\n\r")
	if len(rest) == 0 {
		return nil, fmt.Errorf("%w: no content after opening delimiter", ErrInvalidFrontmatter)
	}

	endIdx := bytes.Index(rest, delimiter)
	if endIdx == -1 {
		return nil, fmt.Errorf("%w: closing delimiter not found", ErrInvalidFrontmatter)
	}

	frontmatter := rest[:endIdx]
	bodyStart := endIdx + len(delimiter)
	// Skip the single newline after the closing delimiter.
	if bodyStart < len(rest) {
		if rest[bodyStart] == '\r' && bodyStart+1 < len(rest) && rest[bodyStart+1] == '\n' {
			bodyStart += 2
		} else if rest[bodyStart] == '\n' {
			bodyStart++
		}
	}

	metadata := make(map[string]any)
	if len(bytes.TrimSpace(frontmatter)) > 0 {
		if err := yaml.Unmarshal(frontmatter, &metadata); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
		}
	}

	return &Template{
		Metadata: metadata,
		Body:     string(rest[bodyStart:]),
	}, nil
}
