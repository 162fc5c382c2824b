package wsserver

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"chatter-server/services/chat-api/internal/infrastructure/metrics"
)

// Hub is the group registry: it maps room group names to the set of live
// sessions subscribed to them. Each group has its own lock so fan-out in one
// room never stalls another; the registry-level lock guards only the
// name-to-group map.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]*group
	log    zerolog.Logger
}

type group struct {
	mu      sync.RWMutex
	members map[*Session]struct{}
}

// NewHub creates an empty group registry.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		groups: make(map[string]*group),
		log:    log.With().Str("component", "hub").Logger(),
	}
}

// Join subscribes a session to a group, creating the group if needed.
func (h *Hub) Join(name string, s *Session) {
	h.mu.Lock()
	g, ok := h.groups[name]
	if !ok {
		g = &group{members: make(map[*Session]struct{})}
		h.groups[name] = g
		metrics.ActiveGroups.Inc()
	}
	h.mu.Unlock()

	g.mu.Lock()
	g.members[s] = struct{}{}
	g.mu.Unlock()
}

// Leave removes a session from a group. Idempotent: leaving a group the
// session is not in is a no-op. Empty groups are pruned.
func (h *Hub) Leave(name string, s *Session) {
	h.mu.RLock()
	g, ok := h.groups[name]
	h.mu.RUnlock()
	if !ok {
		return
	}

	g.mu.Lock()
	delete(g.members, s)
	empty := len(g.members) == 0
	g.mu.Unlock()

	if empty {
		h.mu.Lock()
		// Re-check under the write lock; a session may have joined meanwhile.
		g.mu.RLock()
		stillEmpty := len(g.members) == 0
		g.mu.RUnlock()
		if stillEmpty && h.groups[name] == g {
			delete(h.groups, name)
			metrics.ActiveGroups.Dec()
		}
		h.mu.Unlock()
	}
}

// Size returns the number of sessions subscribed to a group.
func (h *Hub) Size(name string) int {
	h.mu.RLock()
	g, ok := h.groups[name]
	h.mu.RUnlock()
	if !ok {
		return 0
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.members)
}

// Broadcast sends a frame to every session in the group except exclude.
// Pass a nil exclude to reach the whole group.
func (h *Hub) Broadcast(name string, frame any, exclude *Session) {
	h.BroadcastFilter(name, frame, func(s *Session) bool {
		return s != exclude
	})
}

// BroadcastFilter sends a frame to every session in the group for which keep
// returns true. The frame is marshalled once; delivery to each recipient is
// best effort and a slow consumer is disconnected rather than allowed to
// block the group.
func (h *Hub) BroadcastFilter(name string, frame any, keep func(*Session) bool) {
	data, err := json.Marshal(frame)
	if err != nil {
		h.log.Error().Err(err).Str("group", name).Msg("marshal broadcast frame")
		return
	}

	h.mu.RLock()
	g, ok := h.groups[name]
	h.mu.RUnlock()
	if !ok {
		return
	}

	g.mu.RLock()
	recipients := make([]*Session, 0, len(g.members))
	for s := range g.members {
		if keep(s) {
			recipients = append(recipients, s)
		}
	}
	g.mu.RUnlock()

	for _, s := range recipients {
		s.enqueue(data)
	}
}
