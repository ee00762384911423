package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeKeepsAllowedTags(t *testing.T) {
	s := NewSanitizer()

	out := s.Sanitize(`hello <strong>world</strong> and <code>x := 1</code> with <i>style</i>`)
	assert.Contains(t, out, "<strong>world</strong>")
	assert.Contains(t, out, "<code>x := 1</code>")
	assert.Contains(t, out, "<i>style</i>")
}

func TestSanitizeStripsScripts(t *testing.T) {
	s := NewSanitizer()

	out := s.Sanitize(`hi <script>alert(1)</script> there`)
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "alert(1)")
}

func TestSanitizeKeepsHTTPLinksOnly(t *testing.T) {
	s := NewSanitizer()

	out := s.Sanitize(`<a href="https://example.com" title="ok">link</a>`)
	assert.Contains(t, out, `href="https://example.com"`)
	assert.Contains(t, out, `title="ok"`)

	out = s.Sanitize(`<a href="javascript:alert(1)">bad</a>`)
	assert.NotContains(t, out, "javascript:")
}

func TestSanitizeStripsDisallowedAttributes(t *testing.T) {
	s := NewSanitizer()

	out := s.Sanitize(`<strong onclick="alert(1)">bold</strong>`)
	assert.NotContains(t, out, "onclick")
	assert.Contains(t, out, "<strong>bold</strong>")
}

func TestValidateTags(t *testing.T) {
	s := NewSanitizer()

	assert.True(t, s.ValidateTags("plain text without markup"))
	assert.True(t, s.ValidateTags("<strong>bold <i>italic</i></strong>"))
	assert.True(t, s.ValidateTags(`<a href="https://example.com">link</a>`))

	assert.False(t, s.ValidateTags("<strong>unclosed"))
	assert.False(t, s.ValidateTags("</i>closing without opening"))
	assert.False(t, s.ValidateTags("<strong><i>crossed</strong></i>"))

	// 白名单之外的标签不参与配对检查
	assert.True(t, s.ValidateTags("<div>unclosed div is ignored"))
}
