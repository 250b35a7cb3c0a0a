package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	Env = map[string]string{"FROM_FILE": "file"}
	t.Cleanup(func() { Env = nil })
	t.Setenv("FROM_OS", "os")

	assert.Equal(t, "file", GetEnv("FROM_FILE", "def"))
	assert.Equal(t, "os", GetEnv("FROM_OS", "def"))
	assert.Equal(t, "def", GetEnv("MISSING_KEY_FOR_TEST", "def"))
}
