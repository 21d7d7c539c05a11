package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter(t *testing.T) {
	l := NewMemoryLimiter(2, time.Hour).(*memoryLimiter)
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		d, err := l.Hit(ctx, "a@example.com")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.EqualValues(t, i, d.Count)
	}

	clock = clock.Add(10 * time.Minute)
	d, err := l.Hit(ctx, "a@example.com")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 50*time.Minute, d.RetryAfter)

	other, err := l.Hit(ctx, "b@example.com")
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	clock = clock.Add(time.Hour)
	d, err = l.Hit(ctx, "a@example.com")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.EqualValues(t, 1, d.Count)
}
