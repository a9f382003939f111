package agent

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingStore_PutGetClaim(t *testing.T) {
	s := NewPendingStore(time.Minute)

	s.Put("req-1", PendingRequest{Type: "pim_assign", Ticket: "OPS-1", ManagerUPN: "m@x.com"})
	assert.Equal(t, 1, s.Len())

	rec, ok := s.Get("req-1")
	require.True(t, ok)
	assert.Equal(t, "OPS-1", rec.Ticket)
	assert.Equal(t, 1, s.Len())

	rec, ok = s.Claim("req-1")
	require.True(t, ok)
	assert.Equal(t, "pim_assign", rec.Type)
	assert.Equal(t, 0, s.Len())

	_, ok = s.Claim("req-1")
	assert.False(t, ok)
}

func TestPendingStore_Expiry(t *testing.T) {
	s := NewPendingStore(time.Minute)

	current := time.Now()
	s.now = func() time.Time { return current }

	s.Put("req-1", PendingRequest{Type: "pim_assign"})
	require.Equal(t, 1, s.Len())

	current = current.Add(2 * time.Minute)
	_, ok := s.Get("req-1")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestPendingStore_SingleShotClaim(t *testing.T) {
	s := NewPendingStore(time.Minute)
	s.Put("req-1", PendingRequest{Type: "pim_assign"})

	const goroutines = 16
	var wins int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := s.Claim("req-1"); ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestPendingStore_DefaultTTL(t *testing.T) {
	s := NewPendingStore(0)
	assert.Equal(t, DefaultPendingTTL, s.ttl)
}
