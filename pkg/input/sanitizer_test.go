package input

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize_SizeLimit(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"Under Limit", DefaultMaxInputSize - 1, false},
		{"Exact Limit", DefaultMaxInputSize, false},
		{"Over Limit", DefaultMaxInputSize + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Sanitize(strings.Repeat("a", tt.size))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInputTooLarge)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitize_ControlChars(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Plain", "user add bob", "user add bob"},
		{"Safe Controls", "say\thello\nworld", "say\thello\nworld"},
		{"ANSI Code", "\x1b[31mban\x1b[0m", "[31mban[0m"},
		{"Null Byte", "ki\x00ck", "kick"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sanitize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitize_EnvOverride(t *testing.T) {
	t.Setenv(EnvMaxInputSize, "10")

	_, err := Sanitize("12345678901")
	assert.ErrorIs(t, err, ErrInputTooLarge)

	_, err = Sanitize("12345")
	assert.NoError(t, err)
}

func TestSanitizeWithLimit_Disabled(t *testing.T) {
	_, err := SanitizeWithLimit(strings.Repeat("a", DefaultMaxInputSize*2), 0)
	assert.NoError(t, err)
}

func TestSanitize_InvalidUTF8(t *testing.T) {
	_, err := Sanitize("\xbd\xb2\x3d\xbc\x20\xe2\x8c\x98")
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}
