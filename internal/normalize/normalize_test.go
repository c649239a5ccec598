package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCandidates(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		code   string
		want   []string
	}{
		{"prefix stripped by caller", "M", "969", []string{"M969", "969"}},
		{"lower case input", "p", "12a", []string{"P12A", "12A"}},
		{"prefix embedded", "M", "M969", []string{"MM969", "M969"}},
		{"surrounding space", "M", " 969 ", []string{"M969", "969"}},
		{"empty code", "M", "", []string{"M", ""}},
		{"full-width digits", "M", "９６９", []string{"M969", "969"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Candidates(tt.prefix, tt.code))
		})
	}
}

func TestCandidates_NoDedup(t *testing.T) {
	got := Candidates("", "969")
	assert.Equal(t, []string{"969", "969"}, got)
}

func TestPrefixed(t *testing.T) {
	assert.Equal(t, "V42", Prefixed("v", "42"))
}

func TestPackagerVariants(t *testing.T) {
	got := PackagerVariants("fr", "35.360.003", "ce")
	assert.Equal(t, []string{"fr35.360.003ce", "fr-35.360.003-ce"}, got)

	got = PackagerVariants(" es ", " 10.123 ", "")
	assert.Equal(t, []string{"es10.123", "es-10.123-"}, got)
}
