package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupKey(t *testing.T) {
	assert.Equal(t, "dedup:send:alice:req-42", dedupKey("alice", "req-42"))
	assert.NotEqual(t, dedupKey("alice", "k"), dedupKey("bob", "k"), "keys for different senders must differ")
}

func TestSendDedup_Reserve(t *testing.T) {
	ctx := context.Background()
	key := dedupKey("alice", "k1")

	t.Run("wins an unused key", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		d := NewSendDedup(client)
		mock.ExpectSetNX(key, pending, pendingTTL).SetVal(true)

		id, won, err := d.Reserve(ctx, "alice", "k1")
		require.NoError(t, err)
		assert.True(t, won)
		assert.Zero(t, id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns the completed id", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		d := NewSendDedup(client)
		mock.ExpectSetNX(key, pending, pendingTTL).SetVal(false)
		mock.ExpectGet(key).SetVal("42")

		id, won, err := d.Reserve(ctx, "alice", "k1")
		require.NoError(t, err)
		assert.False(t, won)
		assert.Equal(t, int64(42), id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports a pending reservation", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		d := NewSendDedup(client)
		mock.ExpectSetNX(key, pending, pendingTTL).SetVal(false)
		mock.ExpectGet(key).SetVal(pending)

		id, won, err := d.Reserve(ctx, "alice", "k1")
		require.NoError(t, err)
		assert.False(t, won)
		assert.Zero(t, id)
	})

	t.Run("key vanished after SETNX", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		d := NewSendDedup(client)
		mock.ExpectSetNX(key, pending, pendingTTL).SetVal(false)
		mock.ExpectGet(key).RedisNil()

		id, won, err := d.Reserve(ctx, "alice", "k1")
		require.NoError(t, err)
		assert.False(t, won)
		assert.Zero(t, id)
	})

	t.Run("corrupt id", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		d := NewSendDedup(client)
		mock.ExpectSetNX(key, pending, pendingTTL).SetVal(false)
		mock.ExpectGet(key).SetVal("not-a-number")

		_, _, err := d.Reserve(ctx, "alice", "k1")
		assert.ErrorContains(t, err, "corrupt id")
	})

	t.Run("redis error", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		d := NewSendDedup(client)
		boom := errors.New("connection refused")
		mock.ExpectSetNX(key, pending, pendingTTL).SetErr(boom)

		_, won, err := d.Reserve(ctx, "alice", "k1")
		assert.ErrorIs(t, err, boom)
		assert.False(t, won)
	})
}

func TestSendDedup_Complete(t *testing.T) {
	client, mock := redismock.NewClientMock()
	d := NewSendDedup(client)
	mock.ExpectSet(dedupKey("alice", "k1"), int64(42), dedupTTL).SetVal("OK")

	require.NoError(t, d.Complete(context.Background(), "alice", "k1", 42))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendDedup_Release(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes the key", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		d := NewSendDedup(client)
		mock.ExpectDel(dedupKey("alice", "k1")).SetVal(1)

		require.NoError(t, d.Release(ctx, "alice", "k1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("redis error", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		d := NewSendDedup(client)
		boom := errors.New("connection refused")
		mock.ExpectDel(dedupKey("alice", "k1")).SetErr(boom)

		assert.ErrorIs(t, d.Release(ctx, "alice", "k1"), boom)
	})
}
