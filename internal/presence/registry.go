// Package presence tracks connected viewers and announces joins and leaves.
package presence

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quantumlife/viewerscope/internal/core"
)

// Conn is one live transport. Implementations must be safe to Close more
// than once and must report Open() == false after Close.
type Conn interface {
	Send(data []byte) error
	Ping() error
	Close() error
	Open() bool
}

// entry is the liveness table row for a handle. viewer stays nil until the
// handshake completes.
type entry struct {
	viewer *core.Viewer
	alive  bool
	seq    uint64
}

// Registry maps handles to viewers and owns the liveness flags.
type Registry struct {
	entries map[Conn]*entry
	byID    map[string]Conn
	seq     uint64
	now     func() time.Time
	mu      sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[Conn]*entry),
		byID:    make(map[string]Conn),
		now:     time.Now,
	}
}

// Track enters conn in the liveness table as alive. Tracking an already
// tracked handle is a no-op.
func (r *Registry) Track(conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[conn]; !ok {
		r.entries[conn] = &entry{alive: true}
	}
}

// Register creates the viewer for conn, tracking it if needed.
func (r *Registry) Register(conn Conn, userAgent string, location *core.LocationRecord) *core.Viewer {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[conn]
	if !ok {
		e = &entry{alive: true}
		r.entries[conn] = e
	}
	if e.viewer != nil {
		delete(r.byID, e.viewer.ID)
	}

	r.seq++
	e.seq = r.seq
	e.viewer = &core.Viewer{
		ID:          newViewerID(),
		Location:    location,
		ConnectedAt: r.now().UTC(),
		UserAgent:   userAgent,
	}
	r.byID[e.viewer.ID] = conn

	v := *e.viewer
	return &v
}

// Remove drops conn and its viewer. It returns the removed viewer, or nil if
// the handle was unknown or had no viewer yet.
func (r *Registry) Remove(conn Conn) *core.Viewer {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[conn]
	if !ok {
		return nil
	}
	delete(r.entries, conn)
	if e.viewer == nil {
		return nil
	}
	delete(r.byID, e.viewer.ID)

	v := *e.viewer
	return &v
}

// List returns a snapshot of registered viewers in registration order.
func (r *Registry) List() []*core.Viewer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	live := make([]*entry, 0, len(r.byID))
	for _, e := range r.entries {
		if e.viewer != nil {
			live = append(live, e)
		}
	}
	sort.Slice(live, func(i, j int) bool { return live[i].seq < live[j].seq })

	viewers := make([]*core.Viewer, len(live))
	for i, e := range live {
		v := *e.viewer
		viewers[i] = &v
	}
	return viewers
}

// Count returns the number of registered viewers
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Get returns the viewer with the given id
func (r *Registry) Get(id string) (*core.Viewer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	v := *r.entries[conn].viewer
	return &v, true
}

// Tracked reports whether conn is in the liveness table
func (r *Registry) Tracked(conn Conn) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[conn]
	return ok
}

// MarkAlive records a pong or heartbeat from conn
func (r *Registry) MarkAlive(conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[conn]; ok {
		e.alive = true
	}
}

// expire clears the alive flag and returns its previous value. The second
// result is false for untracked handles.
func (r *Registry) expire(conn Conn) (wasAlive, tracked bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[conn]
	if !ok {
		return false, false
	}
	wasAlive = e.alive
	e.alive = false
	return wasAlive, true
}

// Handles returns a snapshot of every tracked handle, viewer or not.
func (r *Registry) Handles() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]Conn, 0, len(r.entries))
	for c := range r.entries {
		conns = append(conns, c)
	}
	return conns
}

// reset empties the registry and returns the handles it held.
func (r *Registry) reset() []Conn {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns := make([]Conn, 0, len(r.entries))
	for c := range r.entries {
		conns = append(conns, c)
	}
	r.entries = make(map[Conn]*entry)
	r.byID = make(map[string]Conn)
	return conns
}

// newViewerID returns a time-ordered random id. NewV7 only fails when the
// system entropy source does, in which case a v4 id is still unique enough.
func newViewerID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
