package idempotency

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store, err := NewRedisStore(client)
	require.NoError(t, err)
	return store, mr
}

func TestRedisStoreReserveAndReplay(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	res, err := store.Reserve(ctx, "k|admin", "fp", fixedTime, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, ReservationStateNew, res.State)

	res, err = store.Reserve(ctx, "k|admin", "fp", fixedTime, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, ReservationStatePending, res.State)

	header := http.Header{"Content-Type": {"application/json"}, "Set-Cookie": {"x=y"}}
	require.NoError(t, store.SaveResponse(ctx, "k|admin", "fp", Response{Status: 201, Headers: header, Body: []byte(`{"id":1}`)}, fixedTime, time.Hour))

	res, err = store.Reserve(ctx, "k|admin", "fp", fixedTime, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, ReservationStateCompleted, res.State)
	assert.Equal(t, 201, res.Record.ResponseStatus)
	assert.Equal(t, `{"id":1}`, string(res.Record.ResponseBody))
	assert.Equal(t, []string{"application/json"}, res.Record.ResponseHeaders["Content-Type"])
	assert.NotContains(t, res.Record.ResponseHeaders, "Set-Cookie")

	assert.Equal(t, time.Hour, mr.TTL(redisKeyPrefix+hashedKey("k|admin")))
}

func TestRedisStoreFingerprintMismatch(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	_, err := store.Reserve(ctx, "k", "fp-1", fixedTime, time.Hour)
	require.NoError(t, err)

	_, err = store.Reserve(ctx, "k", "fp-2", fixedTime, time.Hour)
	assert.ErrorIs(t, err, ErrFingerprintMismatch)
	assert.ErrorIs(t, store.SaveResponse(ctx, "k", "fp-2", Response{Status: 200}, fixedTime, time.Hour), ErrFingerprintMismatch)
}

func TestRedisStoreReleaseAndExpiry(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	_, err := store.Reserve(ctx, "k", "fp", fixedTime, time.Minute)
	require.NoError(t, err)

	require.NoError(t, store.Release(ctx, "k", "other"))
	assert.True(t, mr.Exists(redisKeyPrefix+hashedKey("k")))

	require.NoError(t, store.Release(ctx, "k", "fp"))
	assert.False(t, mr.Exists(redisKeyPrefix+hashedKey("k")))

	_, err = store.Reserve(ctx, "k", "fp", fixedTime, time.Minute)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	res, err := store.Reserve(ctx, "k", "fp-new", fixedTime, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, ReservationStateNew, res.State)
}

func TestRedisStoreUnavailable(t *testing.T) {
	store, mr := setupRedisStore(t)
	mr.Close()

	_, err := store.Reserve(context.Background(), "k", "fp", fixedTime, time.Minute)
	assert.Error(t, err)
}

func TestNewRedisStoreRequiresClient(t *testing.T) {
	_, err := NewRedisStore(nil)
	assert.Error(t, err)
}
