package envchain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	t.Setenv("EC_PRIMARY", "")
	t.Setenv("EC_LEGACY", "legacy")

	assert.Equal(t, "explicit", String("explicit", "EC_PRIMARY", "EC_LEGACY"))
	assert.Equal(t, "legacy", String("", "EC_PRIMARY", "EC_LEGACY"))
	assert.Equal(t, "", String("  ", "EC_MISSING"))
	assert.Equal(t, "fallback", StringDefault("", "fallback", "EC_MISSING"))

	t.Setenv("EC_PRIMARY", "primary")
	v, from := Chain{"EC_PRIMARY", "EC_LEGACY"}.Lookup()
	assert.Equal(t, "primary", v)
	assert.Equal(t, "EC_PRIMARY", from)
}

func TestIntAndSeconds(t *testing.T) {
	t.Setenv("EC_PAGE", "not-a-number")
	t.Setenv("EC_PAGE_LEGACY", "25")
	assert.Equal(t, 25, Int(0, 50, "EC_PAGE", "EC_PAGE_LEGACY"))
	assert.Equal(t, 10, Int(10, 50, "EC_PAGE_LEGACY"))
	assert.Equal(t, 50, Int(0, 50, "EC_MISSING"))

	t.Setenv("EC_TIMEOUT", "15")
	t.Setenv("EC_TIMEOUT_DUR", "1m")
	assert.Equal(t, 15*time.Second, Seconds(0, time.Second, "EC_TIMEOUT"))
	assert.Equal(t, time.Minute, Seconds(0, time.Second, "EC_TIMEOUT_DUR"))
	assert.Equal(t, time.Second, Seconds(0, time.Second, "EC_MISSING"))
}

func TestTruthy(t *testing.T) {
	t.Setenv("EC_FLAG", "Yes")
	assert.True(t, Truthy("EC_FLAG"))
	t.Setenv("EC_FLAG", "0")
	assert.False(t, Truthy("EC_FLAG"))
}
