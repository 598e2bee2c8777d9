package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedLead struct {
	ID    string `json:"id"`
	Score int    `json:"score"`
}

func TestKey(t *testing.T) {
	assert.Equal(t, "crm:tenant-1:leads:lead-1", Key("tenant-1", "leads", "lead-1"))
}

func TestGetSetJSON(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewWithClient(client, 5*time.Minute)
	ctx := context.Background()

	value := cachedLead{ID: "lead-1", Score: 70}
	raw, err := json.Marshal(value)
	require.NoError(t, err)

	mock.ExpectSet("crm:tenant-1:leads:lead-1", raw, 5*time.Minute).SetVal("OK")
	err = store.SetJSON(ctx, "tenant-1", "leads", "lead-1", value)
	assert.NoError(t, err)

	mock.ExpectGet("crm:tenant-1:leads:lead-1").SetVal(string(raw))
	var got cachedLead
	err = store.GetJSON(ctx, "tenant-1", "leads", "lead-1", &got)
	require.NoError(t, err)
	assert.Equal(t, value, got)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetJSONMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewWithClient(client, 5*time.Minute)

	mock.ExpectGet("crm:tenant-1:leads:missing").RedisNil()

	var got cachedLead
	err := store.GetJSON(context.Background(), "tenant-1", "leads", "missing", &got)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestInvalidateSection(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewWithClient(client, 5*time.Minute)

	keys := []string{
		"crm:tenant-1:leads:lead-1",
		"crm:tenant-1:leads:lead-2",
	}
	mock.ExpectScan(0, "crm:tenant-1:leads:*", 100).SetVal(keys, 0)
	mock.ExpectDel(keys...).SetVal(2)

	deleted := store.InvalidateSection(context.Background(), "tenant-1", "leads")
	assert.Equal(t, 2, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvalidateTenant(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewWithClient(client, 5*time.Minute)

	keys := []string{
		"crm:tenant-1:leads:lead-1",
		"crm:tenant-1:dashboard:summary",
	}
	mock.ExpectScan(0, "crm:tenant-1:*", 100).SetVal(keys, 0)
	mock.ExpectDel(keys...).SetVal(2)

	deleted := store.InvalidateTenant(context.Background(), "tenant-1")
	assert.Equal(t, 2, deleted)
}

func TestDisabledStore(t *testing.T) {
	store := New("", "", 0, time.Minute)
	ctx := context.Background()

	assert.False(t, store.Enabled())

	// Every operation is a no-op; reads miss so callers fall through.
	var got cachedLead
	assert.ErrorIs(t, store.GetJSON(ctx, "t", "s", "k", &got), ErrKeyNotFound)
	assert.NoError(t, store.SetJSON(ctx, "t", "s", "k", got))
	assert.NoError(t, store.Delete(ctx, "t", "s", "k"))
	assert.Equal(t, 0, store.InvalidateSection(ctx, "t", "s"))
	assert.NoError(t, store.Ping(ctx))
	assert.NoError(t, store.Close())
}
