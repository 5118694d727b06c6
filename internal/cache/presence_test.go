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

func newPresence(t *testing.T) (*Presence, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewPresence(rdb, "ws", time.Minute), mr
}

func TestPresence_LifeCycle(t *testing.T) {
	p, _ := newPresence(t)
	ctx := context.Background()

	st, err := p.Get(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, st.Online)

	require.NoError(t, p.Connect(ctx, "alice", "s1"))
	require.NoError(t, p.Connect(ctx, "alice", "s2"))
	st, err = p.Get(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, st.Online)
	assert.WithinDuration(t, time.Now(), st.LastSeen, 5*time.Second)

	// still one socket open
	require.NoError(t, p.Disconnect(ctx, "alice", "s1"))
	st, err = p.Get(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, st.Online)

	require.NoError(t, p.Disconnect(ctx, "alice", "s2"))
	st, err = p.Get(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, st.Online)
}

func TestPresence_ExpiresWithoutTouch(t *testing.T) {
	p, mr := newPresence(t)
	ctx := context.Background()

	require.NoError(t, p.Connect(ctx, "bob", "s1"))
	mr.FastForward(30 * time.Second)
	require.NoError(t, p.Touch(ctx, "bob"))
	mr.FastForward(45 * time.Second)

	st, err := p.Get(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, st.Online)

	mr.FastForward(2 * time.Minute)
	st, err = p.Get(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, st.Online)
	assert.True(t, st.LastSeen.IsZero())
}
