package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Unlimited(t *testing.T) {
	l := New(0, 0)
	assert.True(t, l.Unlimited())

	for range 100 {
		require.True(t, l.Allow("overview"))
	}
}

func TestLimiter_Burst(t *testing.T) {
	l := New(60, 2)
	assert.False(t, l.Unlimited())

	assert.True(t, l.Allow("overview"))
	assert.True(t, l.Allow("overview"))
	assert.False(t, l.Allow("overview"), "burst exhausted")
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l := New(1, 1)

	assert.True(t, l.Allow("overview"))
	assert.False(t, l.Allow("overview"))
	assert.True(t, l.Allow("sales-trends"))
}

func TestLimiter_WaitRespectsContext(t *testing.T) {
	l := New(1, 1)
	require.NoError(t, l.Wait(context.Background(), "overview"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx, "overview"))
}

func TestLimiter_WaitRefills(t *testing.T) {
	l := New(1200, 1) // one token every 50ms

	start := time.Now()
	require.NoError(t, l.Wait(context.Background(), "k"))
	require.NoError(t, l.Wait(context.Background(), "k"))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}
