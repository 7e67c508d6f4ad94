package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTypedHelpers(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "forty")
	t.Setenv("TEST_FLOAT", "0.25")
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_DAYS", "7d")
	t.Setenv("TEST_DURATION", "15m")

	assert.Equal(t, 42, Int("TEST_INT", 1))
	assert.Equal(t, 1, Int("TEST_BAD_INT", 1))
	assert.Equal(t, 0.25, Float("TEST_FLOAT", 0))
	assert.True(t, Bool("TEST_BOOL", false))
	assert.Equal(t, 7*24*time.Hour, Duration("TEST_DAYS", 0))
	assert.Equal(t, 15*time.Minute, Duration("TEST_DURATION", 0))
	assert.Equal(t, time.Hour, Duration("TEST_MISSING_DURATION", time.Hour))
	assert.Equal(t, "fallback", Get("TEST_MISSING", "fallback"))
}

func TestIsProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	assert.True(t, IsProduction())

	t.Setenv("APP_ENV", "development")
	assert.False(t, IsProduction())
}

func TestRequire(t *testing.T) {
	t.Setenv("TEST_SET", "value")
	t.Setenv("TEST_BLANK", "   ")

	assert.NoError(t, Require("TEST_SET"))

	err := Require("TEST_SET", "TEST_BLANK", "TEST_UNSET_KEY")
	assert.EqualError(t, err, "missing required environment: TEST_BLANK, TEST_UNSET_KEY")
}
