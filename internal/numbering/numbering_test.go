package numbering_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kertas/internal/numbering"
)

func TestBaseNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
		ok    bool
	}{
		{name: "plain numeric", input: "1042", want: 1042, ok: true},
		{name: "duplicate suffix stripped", input: "1042-2", want: 1042, ok: true},
		{name: "double digit suffix", input: "1042-12", want: 1042, ok: true},
		{name: "prefixed legacy format", input: "INV-1042", want: 1042, ok: true},
		{name: "whitespace", input: " 1999 ", want: 1999, ok: true},
		{name: "non numeric legacy", input: "LEGACY-A", want: 0, ok: false},
		{name: "empty", input: "", want: 0, ok: false},
		{name: "digits embedded in text", input: "no1se77", want: 177, ok: true},
		{name: "overflow ignored", input: "999999999999999999999999", want: 0, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := numbering.BaseNumber(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "1042", want: "1042"},
		{input: "1042-2", want: "1042"},
		{input: "1042-2-3", want: "1042-2"},
		{input: "LEGACY-A", want: "LEGACY-A"},
		{input: "INV-1042", want: "INV-1042"},
		{input: "1042-", want: "1042-"},
		{input: "-2", want: "-2"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, numbering.Normalize(tt.input))
		})
	}
}

func TestHasSuffix(t *testing.T) {
	assert.True(t, numbering.HasSuffix("1042-2"))
	assert.False(t, numbering.HasSuffix("1042"))
	assert.False(t, numbering.HasSuffix("LEGACY-A"))
}

func TestNext(t *testing.T) {
	assert.Equal(t, "2000", numbering.Next(1999))
	assert.Equal(t, "1043", numbering.Next(1042))

	// No parsable numbers in the store falls back to the default base
	// instead of starting from 1.
	assert.Equal(t, "1000", numbering.Next(0))
	assert.Equal(t, "1000", numbering.Next(-5))
}
