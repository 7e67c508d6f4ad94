package cache

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

type entry struct {
	val []byte
	exp time.Time
}

// MemoryStorage is the single-process fallback used when REDIS_URL is unset.
type MemoryStorage struct {
	mu   sync.Mutex
	data map[string]entry
	now  func() time.Time
}

var (
	_ fiber.Storage = (*MemoryStorage)(nil)
	_ Counter       = (*MemoryStorage)(nil)
)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string]entry), now: time.Now}
}

func (m *MemoryStorage) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	if !e.exp.IsZero() && m.now().After(e.exp) {
		delete(m.data, key)
		return nil, nil
	}
	return e.val, nil
}

func (m *MemoryStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	e := entry{val: append([]byte(nil), val...)}
	if exp > 0 {
		e.exp = m.now().Add(exp)
	}

	m.mu.Lock()
	m.data[key] = e
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) Incr(key string, exp time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	e, ok := m.data[key]
	if ok && !e.exp.IsZero() && now.After(e.exp) {
		ok = false
	}
	var n int64
	if ok {
		var err error
		if n, err = strconv.ParseInt(string(e.val), 10, 64); err != nil {
			return 0, err
		}
	} else {
		e = entry{}
		if exp > 0 {
			e.exp = now.Add(exp)
		}
	}
	n++
	e.val = []byte(strconv.FormatInt(n, 10))
	m.data[key] = e
	return n, nil
}

func (m *MemoryStorage) Delete(key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) Reset() error {
	m.mu.Lock()
	m.data = make(map[string]entry)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) Close() error { return nil }

// Sweep drops expired entries; called from the cron scheduler.
func (m *MemoryStorage) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	now := m.now()
	for k, e := range m.data {
		if !e.exp.IsZero() && now.After(e.exp) {
			delete(m.data, k)
			n++
		}
	}
	return n
}
