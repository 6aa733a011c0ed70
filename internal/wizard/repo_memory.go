package wizard

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	sess     *Session
	lastSeen time.Time
}

// MemoryRepo is an in-memory Repo. Sessions idle for longer than ttl are
// treated as gone; a non-positive ttl keeps them forever.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]*memoryEntry
	ttl  time.Duration
	now  func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo(ttl time.Duration, now func() time.Time) *MemoryRepo {
	if now == nil {
		now = time.Now
	}
	return &MemoryRepo{
		data: make(map[string]*memoryEntry),
		ttl:  ttl,
		now:  now,
	}
}

// Create stores a new session.
func (r *MemoryRepo) Create(ctx context.Context, sess *Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if sess == nil || sess.id == "" {
		return ErrInvalidInput
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[sess.id] = &memoryEntry{sess: sess, lastSeen: r.now()}
	return nil
}

// Get returns a live session and refreshes its idle timer.
func (r *MemoryRepo) Get(ctx context.Context, id string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	now := r.now()
	if r.expired(entry, now) {
		delete(r.data, id)
		return nil, ErrNotFound
	}
	entry.lastSeen = now
	return entry.sess, nil
}

// Delete removes a session.
func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}

// Sweep drops expired sessions and returns their ids.
func (r *MemoryRepo) Sweep(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	var removed []string
	for id, entry := range r.data {
		if r.expired(entry, now) {
			delete(r.data, id)
			removed = append(removed, id)
		}
	}
	return removed, nil
}

// Len returns the number of stored sessions, expired or not.
func (r *MemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}

func (r *MemoryRepo) expired(entry *memoryEntry, now time.Time) bool {
	return r.ttl > 0 && now.Sub(entry.lastSeen) > r.ttl
}
