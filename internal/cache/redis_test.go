package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lomal-tg/lomal-backend/internal/config"
	"github.com/lomal-tg/lomal-backend/internal/models"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	t.Cleanup(func() { mr.Close() })

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	return cache, mr
}

func TestSetAndGet(t *testing.T) {
	cache, _ := setupTestCache(t)

	expected := models.VerificationChallenge{
		Name:      "Kofi Mensah",
		Phone:     "+22890112233",
		Code:      "482913",
		ExpiresAt: time.Now().Add(5 * time.Minute).UTC().Truncate(time.Second),
	}
	err := cache.Set(ChallengeKeyPrefix+expected.Phone, expected, 5*time.Minute)
	require.NoError(t, err)

	var actual models.VerificationChallenge
	found, err := cache.Get(ChallengeKeyPrefix+expected.Phone, &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected, actual)
}

func TestGetNotFound(t *testing.T) {
	cache, _ := setupTestCache(t)

	var out models.VerificationChallenge
	found, err := cache.Get("no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache, _ := setupTestCache(t)

	require.NoError(t, cache.Set("k", "v", time.Minute))
	require.NoError(t, cache.Invalidate("k"))

	var out string
	found, err := cache.Get("k", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestExpiration(t *testing.T) {
	cache, mr := setupTestCache(t)

	require.NoError(t, cache.Set("k", "v", time.Minute))
	mr.FastForward(2 * time.Minute)

	var out string
	found, err := cache.Get("k", &out)
	require.NoError(t, err)
	assert.False(t, found)
}
