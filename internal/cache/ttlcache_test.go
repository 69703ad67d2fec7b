package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCache_FetchesOnceWithinTTL(t *testing.T) {
	c := New[int](50 * time.Millisecond)
	calls := 0
	fetch := func(context.Context) (int, error) {
		calls++
		return 42, nil
	}

	v, err := c.GetOrFetch(context.Background(), "k", fetch)
	assert.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = c.GetOrFetch(context.Background(), "k", fetch)
	assert.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)
}

func TestTTLCache_RefetchesAfterExpiry(t *testing.T) {
	c := New[int](10 * time.Millisecond)
	calls := 0
	fetch := func(context.Context) (int, error) {
		calls++
		return calls, nil
	}

	_, _ = c.GetOrFetch(context.Background(), "k", fetch)
	time.Sleep(20 * time.Millisecond)
	v, _ := c.GetOrFetch(context.Background(), "k", fetch)
	assert.Equal(t, 2, v)
}

func TestTTLCache_ZeroTTLNeverExpires(t *testing.T) {
	c := New[int](0)
	calls := 0
	fetch := func(context.Context) (int, error) {
		calls++
		return 7, nil
	}
	_, _ = c.GetOrFetch(context.Background(), "k", fetch)
	time.Sleep(5 * time.Millisecond)
	_, _ = c.GetOrFetch(context.Background(), "k", fetch)
	assert.Equal(t, 1, calls)
}
