package collect

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_SlidingWindow(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(100, time.Minute)
	rl.now = func() time.Time { return current }

	// сто запросов в окне проходят
	for i := 0; i < 100; i++ {
		require.True(t, rl.Allow("203.0.113.7"), "request %d should pass", i+1)
		current = current.Add(100 * time.Millisecond)
	}

	// сто первый — нет
	assert.False(t, rl.Allow("203.0.113.7"))

	// после истечения окна тот же IP снова проходит
	current = current.Add(61 * time.Second)
	assert.True(t, rl.Allow("203.0.113.7"))
}

func TestRateLimiter_PerIPIsolation(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"))
}

func TestRateLimiter_PrunesOldEntries(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return current }

	require.True(t, rl.Allow("10.0.0.1"))
	current = current.Add(59 * time.Second)
	require.True(t, rl.Allow("10.0.0.1"))
	require.False(t, rl.Allow("10.0.0.1"))

	// первая запись выпала из окна, лимит освободился
	current = current.Add(2 * time.Second)
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.Len(t, rl.hits["10.0.0.1"], 2)
}

func TestRateLimiter_Concurrent(t *testing.T) {
	rl := NewRateLimiter(50, time.Minute)

	results := make(chan bool, 100)
	for i := 0; i < 100; i++ {
		go func() {
			results <- rl.Allow("10.0.0.1")
		}()
	}

	allowed := 0
	for i := 0; i < 100; i++ {
		if <-results {
			allowed++
		}
	}

	// при конкурентном доступе лимит не должен грубо пробиваться
	assert.Equal(t, 50, allowed, fmt.Sprintf("expected exactly the limit, got %d", allowed))
}
