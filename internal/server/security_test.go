package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMessageRateLimiter(t *testing.T) {
	// 8 msgs/sec, warning threshold 6
	ml := NewMessageRateLimiter(8)
	clientID := "client1"

	for i := 0; i < 8; i++ {
		allowed, _ := ml.AllowMessage(clientID)
		assert.True(t, allowed, "message %d should be allowed", i)
	}

	// 9th message should be blocked and counted as a warning
	allowed, warning := ml.AllowMessage(clientID)
	assert.False(t, allowed)
	assert.True(t, warning)
	assert.Equal(t, 1, ml.WarningCount(clientID))

	// Removing the client resets its counters
	ml.RemoveClient(clientID)
	assert.Equal(t, 0, ml.WarningCount(clientID))
	allowed, _ = ml.AllowMessage(clientID)
	assert.True(t, allowed)
}

func TestMessageRateLimiter_WarnsNearLimit(t *testing.T) {
	ml := NewMessageRateLimiter(4)
	clientID := "client1"

	var warned bool
	for i := 0; i < 4; i++ {
		allowed, warning := ml.AllowMessage(clientID)
		assert.True(t, allowed)
		warned = warned || warning
	}
	assert.True(t, warned, "should warn before blocking")
}

func TestConnRateLimiter(t *testing.T) {
	rl := NewConnRateLimiter(3, time.Minute)
	ip := "127.0.0.1"

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow(ip), "connection %d should be allowed", i)
	}

	// 4th connection in the same minute gets the IP banned
	assert.False(t, rl.Allow(ip))
	assert.True(t, rl.IsBanned(ip))

	// Other IPs are unaffected
	assert.True(t, rl.Allow("10.0.0.2"))
	assert.False(t, rl.IsBanned("10.0.0.2"))
}

func TestGetClientIP(t *testing.T) {
	r, _ := http.NewRequest(http.MethodGet, "/ws", nil)
	r.RemoteAddr = "10.0.0.1:54321"

	assert.Equal(t, "10.0.0.1", GetClientIP(r))

	r.Header.Set("X-Real-IP", "203.0.113.7")
	assert.Equal(t, "203.0.113.7", GetClientIP(r))

	// X-Forwarded-For wins and the first hop is the client
	r.Header.Set("X-Forwarded-For", "198.51.100.4, 10.0.0.1")
	assert.Equal(t, "198.51.100.4", GetClientIP(r))
}
