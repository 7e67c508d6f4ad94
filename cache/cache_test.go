package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStorage(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStorage(client, "test:"), mr
}

func exerciseStorage(t *testing.T, s fiber.Storage) {
	t.Helper()

	v, err := s.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, s.Set("otp", []byte("123456"), time.Minute))
	v, err = s.Get("otp")
	require.NoError(t, err)
	assert.Equal(t, "123456", string(v))

	require.NoError(t, s.Delete("otp"))
	v, err = s.Get("otp")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, s.Set("a", []byte("1"), 0))
	require.NoError(t, s.Reset())
	v, err = s.Get("a")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestMemoryStorage(t *testing.T) {
	exerciseStorage(t, NewMemoryStorage())
}

func TestRedisStorage(t *testing.T) {
	s, _ := newRedisStorage(t)
	exerciseStorage(t, s)
}

func TestRedisStorageExpiry(t *testing.T) {
	s, mr := newRedisStorage(t)

	require.NoError(t, s.Set("k", []byte("v"), time.Minute))
	assert.True(t, mr.Exists("test:k"))

	mr.FastForward(2 * time.Minute)
	v, err := s.Get("k")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestMemoryStorageExpiry(t *testing.T) {
	m := NewMemoryStorage()
	now := time.Now()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set("k", []byte("v"), time.Second))
	require.NoError(t, m.Set("forever", []byte("v"), 0))

	now = now.Add(2 * time.Second)
	assert.Equal(t, 1, m.Sweep())

	v, _ := m.Get("forever")
	assert.Equal(t, "v", string(v))
}

func exerciseCounter(t *testing.T, c Counter) {
	t.Helper()
	for want := int64(1); want <= 3; want++ {
		n, err := c.Incr("tries", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}
}

func TestMemoryCounter(t *testing.T) {
	m := NewMemoryStorage()
	now := time.Now()
	m.now = func() time.Time { return now }
	exerciseCounter(t, m)

	// the expiry is fixed by the first increment
	now = now.Add(50 * time.Second)
	_, err := m.Incr("tries", time.Minute)
	require.NoError(t, err)
	now = now.Add(20 * time.Second)
	n, err := m.Incr("tries", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestRedisCounter(t *testing.T) {
	s, mr := newRedisStorage(t)
	exerciseCounter(t, s)

	mr.FastForward(30 * time.Second)
	_, err := s.Incr("tries", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, mr.TTL("test:tries"))
}
