package sessionstate

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/puntosclub/kiosk-backend/pkg/enums"
)

// Snapshot is the immutable view of the kiosk's current session.
type Snapshot struct {
	Active     bool
	ClientID   uuid.UUID
	Role       enums.Role
	SignedInAt time.Time
}

// Holder is a process-wide observable session state. Subscribers receive a
// snapshot on every sign-in/sign-out transition. Publishes never block: a
// subscriber that stopped draining misses intermediate snapshots, and
// publishes after Close are dropped.
type Holder struct {
	mu     sync.RWMutex
	snap   Snapshot
	subs   map[int]chan Snapshot
	nextID int
	closed bool
	now    func() time.Time
}

// NewHolder builds an empty (signed-out) holder.
func NewHolder() *Holder {
	return &Holder{
		subs: map[int]chan Snapshot{},
		now:  time.Now,
	}
}

// Snapshot returns the current session view.
func (h *Holder) Snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snap
}

// Subscribe registers an observer. The returned cancel func must be called
// when the observer goes away; it is safe to call more than once.
func (h *Holder) Subscribe() (<-chan Snapshot, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Snapshot, 1)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// SignIn publishes an active session for the given client.
func (h *Holder) SignIn(clientID uuid.UUID, role enums.Role) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.snap = Snapshot{
		Active:     true,
		ClientID:   clientID,
		Role:       role,
		SignedInAt: h.now(),
	}
	h.publishLocked()
}

// SignOut publishes the signed-out state.
func (h *Holder) SignOut() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.snap = Snapshot{}
	h.publishLocked()
}

// Close tears the holder down. Further SignIn/SignOut calls are dropped and
// all subscriber channels are closed.
func (h *Holder) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

func (h *Holder) publishLocked() {
	for _, ch := range h.subs {
		select {
		case ch <- h.snap:
		default:
			// subscriber is behind; replace its stale snapshot
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- h.snap:
			default:
			}
		}
	}
}
