package websocket

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/anjiri1684/elevate_lms/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu       sync.Mutex
	events   []Event
	fail     bool
	closed   bool
	deadline time.Time
}

func (f *fakeConn) SetWriteDeadline(t time.Time) error {
	f.mu.Lock()
	f.deadline = t
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broken pipe")
	}
	f.events = append(f.events, v.(Event))
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub()
	go h.Run()
	t.Cleanup(h.Stop)
	return h
}

func TestHubDeliversToAllConnectionsOfAccount(t *testing.T) {
	h := startHub(t)
	id := uuid.New()
	key := Key{Role: models.RoleUser, ID: id}

	a, b := &fakeConn{}, &fakeConn{}
	h.Join(&Client{Key: key, Conn: a})
	h.Join(&Client{Key: key, Conn: b})
	other := &fakeConn{}
	h.Join(&Client{Key: Key{Role: models.RoleTutor, ID: id}, Conn: other})

	h.Send(models.RoleUser, id, "notification", map[string]string{"title": "Enrolled"})

	require.Eventually(t, func() bool { return a.count() == 1 && b.count() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, other.count(), "same id under another role is a different account")
	assert.True(t, h.Online(key))
}

func TestHubDropsBrokenConnections(t *testing.T) {
	h := startHub(t)
	key := Key{Role: models.RoleAdmin, ID: uuid.New()}
	bad := &fakeConn{fail: true}
	h.Join(&Client{Key: key, Conn: bad})

	h.Send(key.Role, key.ID, "notification", nil)

	require.Eventually(t, func() bool { return !h.Online(key) }, time.Second, 10*time.Millisecond)
	bad.mu.Lock()
	assert.True(t, bad.closed)
	bad.mu.Unlock()
}

func TestHubUnregister(t *testing.T) {
	h := startHub(t)
	key := Key{Role: models.RoleUser, ID: uuid.New()}
	c := &fakeConn{}
	h.Join(&Client{Key: key, Conn: c})
	h.Leave(&Client{Key: key, Conn: c})

	require.Eventually(t, func() bool { return !h.Online(key) }, time.Second, 10*time.Millisecond)
}

func TestHubWritesWithDeadline(t *testing.T) {
	h := startHub(t)
	key := Key{Role: models.RoleUser, ID: uuid.New()}
	c := &fakeConn{}
	h.Join(&Client{Key: key, Conn: c})

	before := time.Now()
	h.Send(key.Role, key.ID, "notification", nil)
	require.Eventually(t, func() bool { return c.count() == 1 }, time.Second, 10*time.Millisecond)

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.False(t, c.deadline.Before(before.Add(writeWait)))
}

func TestHubStoppedDoesNotBlockClients(t *testing.T) {
	h := NewHub()
	go h.Run()
	key := Key{Role: models.RoleUser, ID: uuid.New()}
	c := &Client{Key: key, Conn: &fakeConn{}}
	require.True(t, h.Join(c))
	h.Stop()
	h.Stop()

	done := make(chan struct{})
	go func() {
		h.Leave(c)
		assert.False(t, h.Join(&Client{Key: key, Conn: &fakeConn{}}))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("client calls blocked after the hub stopped")
	}
}
