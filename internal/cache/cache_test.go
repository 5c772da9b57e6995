package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withMiniredis points the package client at an in-process Redis for the
// duration of one test.
func withMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	prev := client
	client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		client = prev
	})
	return mr
}

func TestAside_PopulatesThenServesFromCache(t *testing.T) {
	withMiniredis(t)
	ctx := context.Background()
	fetches := 0
	fetch := func(dest *[]string) func() error {
		return func() error {
			fetches++
			*dest = []string{"p1", "p2"}
			return nil
		}
	}

	var first []string
	require.NoError(t, Aside(ctx, FeedKey("", false), &first, FeedTTL, fetch(&first)))
	assert.Equal(t, []string{"p1", "p2"}, first)
	assert.Equal(t, 1, fetches)

	// Second read must come from the cache, not the fetcher.
	var second []string
	require.NoError(t, Aside(ctx, FeedKey("", false), &second, FeedTTL, fetch(&second)))
	assert.Equal(t, []string{"p1", "p2"}, second)
	assert.Equal(t, 1, fetches)
}

func TestAside_ExpiredEntryRefetches(t *testing.T) {
	mr := withMiniredis(t)
	ctx := context.Background()

	var v string
	fetches := 0
	fetch := func() error {
		fetches++
		v = "fresh"
		return nil
	}
	require.NoError(t, Aside(ctx, "k", &v, time.Second, fetch))
	mr.FastForward(2 * time.Second)
	require.NoError(t, Aside(ctx, "k", &v, time.Second, fetch))
	assert.Equal(t, 2, fetches)
}

func TestAside_NilClientDegradesToPlainFetch(t *testing.T) {
	prev := client
	client = nil
	t.Cleanup(func() { client = prev })

	fetches := 0
	var v int
	fetch := func() error {
		fetches++
		v = 42
		return nil
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, Aside(context.Background(), "k", &v, time.Minute, fetch))
	}
	assert.Equal(t, 42, v)
	assert.Equal(t, 3, fetches)
}

func TestGetJSON_MissIsNotAnError(t *testing.T) {
	withMiniredis(t)

	var v string
	found, err := GetJSON(context.Background(), "absent", &v)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidateFeeds(t *testing.T) {
	mr := withMiniredis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, FeedKey("", false), []string{"a"}, FeedTTL))
	require.NoError(t, SetJSON(ctx, FeedKey("music", true), []string{"b"}, FeedTTL))
	require.NoError(t, SetJSON(ctx, PostKey("p1"), "detail", PostTTL))

	InvalidateFeeds(ctx)

	// Every cached feed page is gone; unrelated keys survive.
	assert.False(t, mr.Exists(FeedKey("", false)))
	assert.False(t, mr.Exists(FeedKey("music", true)))
	assert.True(t, mr.Exists(PostKey("p1")))
}

func TestInvalidatePost(t *testing.T) {
	mr := withMiniredis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, PostKey("p1"), "detail", PostTTL))
	InvalidatePost(ctx, "p1")
	assert.False(t, mr.Exists(PostKey("p1")))
}
