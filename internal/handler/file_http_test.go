package handler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentDispositionEscapesFileName(t *testing.T) {
	assert.Equal(t, `inline; filename=notes.txt`, contentDisposition("notes.txt"))
	assert.Equal(t, `inline; filename="my notes.txt"`, contentDisposition("my notes.txt"))
}

func TestContentDispositionNeutralizesHeaderInjection(t *testing.T) {
	cases := []string{
		"evil\r\nSet-Cookie: pwned=1.txt",
		`break"out.txt`,
		"newline\nname.txt",
	}
	for _, name := range cases {
		header := contentDisposition(name)
		assert.NotContains(t, header, "\r")
		assert.NotContains(t, header, "\n")
		if strings.Contains(header, `"`) {
			// 引号内的内容必须保持转义后的quoted-string形态
			assert.NotContains(t, header, `break"out`)
		}
	}
}
