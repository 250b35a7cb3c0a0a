package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSafeUsername(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"John Doe", "johndoe"},
		{"José Álvarez", "josealvarez"},
		{"pixel_artist-99", "pixelartist99"},
		{"ÅSA", "asa"},
		{"abcdefghijklmnopqrstuvwxyz0123", "abcdefghijklmnopqrstuvwx"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildSafeUsername(tt.in))
		})
	}
}

func TestBuildSafeUsernameFallback(t *testing.T) {
	for _, in := range []string{"", "李", "a!", "  "} {
		got := BuildSafeUsername(in)
		assert.True(t, strings.HasPrefix(got, "user"), got)
		assert.Len(t, got, 8)
		for _, r := range got[4:] {
			assert.True(t, r >= 'a' && r <= 'z', got)
		}
	}
}
