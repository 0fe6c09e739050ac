package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepair(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain text", "hello world", "hello world"},
		{"unclosed inline code", "hello `world", "hello `world`"},
		{"closed inline code", "use `go test` here", "use `go test` here"},
		{"unclosed bold", "this is **bold", "this is **bold**"},
		{"unclosed italic", "this is *ital", "this is *ital*"},
		{"bold and italic", "**bold and *ital", "**bold and *ital***"},
		{"balanced emphasis", "**a** and *b*", "**a** and *b*"},
		{"unclosed fence", "```go\nfmt.Println()", "```go\nfmt.Println()\n```"},
		{"unclosed fence ending in newline", "```\ncode\n", "```\ncode\n```"},
		{"closed fence", "```\ncode\n```\n", "```\ncode\n```\n"},
		{"fence and inline code", "```\nx `y", "```\nx `y\n```" + "`"},
		{"all markers", "```\n`a **b *c", "```\n`a **b *c\n```" + "`" + "**" + "*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Repair(tt.input))
		})
	}
}

func TestRepairIsIdempotentOnBalancedOutput(t *testing.T) {
	for _, in := range []string{"hello `world", "**bold", "*a", "a **b** *c"} {
		once := Repair(in)
		assert.Equal(t, once, Repair(once), in)
	}
}

func TestCountLone(t *testing.T) {
	assert.Equal(t, 0, countLone("``", '`'))
	assert.Equal(t, 2, countLone("`a` ``b``", '`'))
	assert.Equal(t, 1, countLone("**a *b", '*'))
}
