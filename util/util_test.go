package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShellQuote(t *testing.T) {
	for _, tc := range []struct {
		in, want string
	}{
		{"-bench=query", "-bench=query"},
		{"//dpir:dpir_client", "//dpir:dpir_client"},
		{"", "''"},
		{"a b", "'a b'"},
		{"it's", `'it'\''s'`},
		{"$(rm -rf /)", "'$(rm -rf /)'"},
	} {
		assert.Equal(t, tc.want, ShellQuote(tc.in), tc.in)
	}
}

func TestStructMap(t *testing.T) {
	type opts struct {
		Query   bool
		Target  string
		private int
	}
	m := StructMap(&opts{Query: true, Target: "ssh", private: 3})
	assert.Equal(t, map[string]any{"Query": true, "Target": "ssh"}, m)
}

func TestRandstring(t *testing.T) {
	s := Randstring(8)
	assert.Len(t, s, 8)
	assert.Regexp(t, "^[a-z]+$", s)
}
