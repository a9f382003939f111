package agent

import (
	"sync"
	"time"
)

// DefaultPendingTTL is how long an unapproved request stays claimable.
const DefaultPendingTTL = 30 * time.Minute

// PendingRequest is an approval awaiting a manager decision.
type PendingRequest struct {
	// Type identifies the operation, currently always "pim_assign".
	Type string

	// Ticket is the Jira issue key opened for this request.
	Ticket string

	// ManagerUPN is the only identity allowed to decide the request.
	ManagerUPN string

	// Inputs are the stored MCP tool arguments executed on approval.
	Inputs map[string]any

	createdAt time.Time
}

// PendingStore holds approval requests in memory with a TTL. A decision
// claims the record atomically, so two concurrent approvals of the same
// request cannot both execute; the loser sees a missing record.
type PendingStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	records map[string]PendingRequest
	now     func() time.Time
}

// NewPendingStore creates a store with the given TTL. A zero TTL uses
// DefaultPendingTTL.
func NewPendingStore(ttl time.Duration) *PendingStore {
	if ttl <= 0 {
		ttl = DefaultPendingTTL
	}
	return &PendingStore{
		ttl:     ttl,
		records: make(map[string]PendingRequest),
		now:     time.Now,
	}
}

// Put stores a pending request under the given ID.
func (s *PendingStore) Put(id string, req PendingRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()

	req.createdAt = s.now()
	s.records[id] = req
}

// Get returns a snapshot of the request without claiming it. Used to
// validate ticket and approver before the decision is executed.
func (s *PendingStore) Get(id string) (PendingRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()

	req, ok := s.records[id]
	return req, ok
}

// Claim removes and returns the request. Exactly one caller wins a
// concurrent claim; everyone else gets ok=false.
func (s *PendingStore) Claim(id string) (PendingRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()

	req, ok := s.records[id]
	if ok {
		delete(s.records, id)
	}
	return req, ok
}

// Len returns the number of live records.
func (s *PendingStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()

	return len(s.records)
}

// sweepLocked drops expired records. Callers must hold the mutex.
func (s *PendingStore) sweepLocked() {
	cutoff := s.now().Add(-s.ttl)
	for id, req := range s.records {
		if req.createdAt.Before(cutoff) {
			delete(s.records, id)
		}
	}
}
