package cache

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

var testCache *RedisCache

func TestMain(m *testing.M) {
	ctx := context.Background()

	redisContainer, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		log.Fatalf("failed to start redis container: %s", err)
	}
	defer func() {
		if err := redisContainer.Terminate(ctx); err != nil {
			log.Fatalf("failed to terminate redis container: %s", err)
		}
	}()

	connStr, err := redisContainer.ConnectionString(ctx)
	if err != nil {
		log.Fatalf("failed to get redis connection string: %s", err)
	}

	opts, err := redis.ParseURL(connStr)
	if err != nil {
		log.Fatalf("failed to parse redis connection string: %s", err)
	}

	testCache = NewRedisCache(redis.NewClient(opts))

	os.Exit(m.Run())
}

func TestGetSetDelete(t *testing.T) {
	ctx := context.Background()

	_, err := testCache.Get(ctx, "nie-ma")
	require.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, testCache.Set(ctx, "klucz", "wartość", time.Minute))

	got, err := testCache.Get(ctx, "klucz")
	require.NoError(t, err)
	require.Equal(t, "wartość", got)

	require.NoError(t, testCache.Delete(ctx, "klucz", "nie-ma"))

	_, err = testCache.Get(ctx, "klucz")
	require.ErrorIs(t, err, ErrCacheMiss)
}

func TestSetExpires(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, testCache.Set(ctx, "ulotny", "x", 50*time.Millisecond))
	time.Sleep(100 * time.Millisecond)

	_, err := testCache.Get(ctx, "ulotny")
	require.ErrorIs(t, err, ErrCacheMiss)
}

func TestIncrWindow(t *testing.T) {
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		count, err := testCache.Incr(ctx, "licznik", time.Minute)
		require.NoError(t, err)
		require.Equal(t, i, count)
	}
}

func TestIncrWindowResets(t *testing.T) {
	ctx := context.Background()

	count, err := testCache.Incr(ctx, "okno", 50*time.Millisecond)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	time.Sleep(100 * time.Millisecond)

	// Po wygaśnięciu okna licznik startuje od nowa.
	count, err = testCache.Incr(ctx, "okno", 50*time.Millisecond)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}
