package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"ventasWs/internal/modules/realtime/application/port"
	"ventasWs/internal/modules/realtime/domain"
)

// Hub keeps the connected websocket clients grouped by name and fans published
// messages out to them. Every client joins the default group on Attach.
type Hub struct {
	mu           sync.RWMutex
	groups       map[string]map[*Client]struct{}
	clients      map[string]*Client
	defaultGroup string
	now          func() time.Time
}

// HubStats is a point-in-time view used by the health endpoint.
type HubStats struct {
	Clients int            `json:"clients"`
	Groups  map[string]int `json:"groups"`
}

// NewHub crea el hub. Un grupo por defecto vacío usa DataSync.
func NewHub(defaultGroup string) *Hub {
	defaultGroup = domain.NormalizeGroup(defaultGroup)
	if defaultGroup == "" {
		defaultGroup = domain.DefaultGroup
	}
	return &Hub{
		groups:       make(map[string]map[*Client]struct{}),
		clients:      make(map[string]*Client),
		defaultGroup: defaultGroup,
		now:          time.Now,
	}
}

func (h *Hub) DefaultGroup() string { return h.defaultGroup }

// Attach registers c and joins it to the default group. A client re-using an
// existing id replaces the previous connection.
func (h *Hub) Attach(c *Client) {
	h.mu.Lock()
	if existing, ok := h.clients[c.id]; ok && existing != c {
		h.detachLocked(existing)
	}
	h.clients[c.id] = c
	h.joinLocked(c, h.defaultGroup)
	h.mu.Unlock()
	slog.Info("ws client attached", slog.String("clientId", c.id), slog.String("remote", c.remote), slog.String("group", h.defaultGroup))
}

// Join adds c to group. Unknown clients are ignored.
func (h *Hub) Join(c *Client, group string) bool {
	group = domain.NormalizeGroup(group)
	if group == "" {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.id] != c {
		return false
	}
	h.joinLocked(c, group)
	slog.Debug("ws client joined group", slog.String("clientId", c.id), slog.String("group", group))
	return true
}

// Leave removes c from group.
func (h *Hub) Leave(c *Client, group string) {
	group = domain.NormalizeGroup(group)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, group)
	slog.Debug("ws client left group", slog.String("clientId", c.id), slog.String("group", group))
}

// Disconnect removes the client with id from every group and closes it.
// Unknown or already removed ids are a no-op.
func (h *Hub) Disconnect(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		h.detachLocked(c)
	}
}

func (h *Hub) detach(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.id] == c {
		h.detachLocked(c)
		return
	}
	c.close()
}

func (h *Hub) joinLocked(c *Client, group string) {
	if h.groups[group] == nil {
		h.groups[group] = make(map[*Client]struct{})
	}
	h.groups[group][c] = struct{}{}
	c.groups[group] = struct{}{}
}

func (h *Hub) leaveLocked(c *Client, group string) {
	if members, ok := h.groups[group]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
	delete(c.groups, group)
}

func (h *Hub) detachLocked(c *Client) {
	for group := range c.groups {
		h.leaveLocked(c, group)
	}
	delete(h.clients, c.id)
	c.close()
	slog.Info("ws client detached", slog.String("clientId", c.id), slog.String("remote", c.remote))
}

// Publish delivers payload tagged with event to every current member of group.
// Delivery never blocks: a member whose queue is full is detached in the
// background and the remaining members still receive the message. Only a
// payload that cannot be serialized is reported back.
func (h *Hub) Publish(_ context.Context, group, event string, payload any) error {
	group = domain.NormalizeGroup(group)
	if group == "" {
		group = h.defaultGroup
	}
	data, err := json.Marshal(domain.Message{Event: event, Group: group, Data: payload, Timestamp: h.now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", event, err)
	}

	h.mu.RLock()
	members := make([]*Client, 0, len(h.groups[group]))
	for c := range h.groups[group] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	for _, c := range members {
		if !c.enqueue(data) {
			slog.Warn("ws client queue full, detaching", slog.String("clientId", c.id), slog.String("group", group), slog.String("event", event))
			go h.detach(c)
		}
	}
	slog.Debug("hub publish", slog.String("group", group), slog.String("event", event), slog.Int("recipients", len(members)))
	return nil
}

func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	stats := HubStats{Clients: len(h.clients), Groups: make(map[string]int, len(h.groups))}
	for group, members := range h.groups {
		stats.Groups[group] = len(members)
	}
	return stats
}

// Groups returns the groups c currently belongs to, sorted.
func (h *Hub) Groups(c *Client) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	groups := make([]string, 0, len(c.groups))
	for group := range c.groups {
		groups = append(groups, group)
	}
	sort.Strings(groups)
	return groups
}

// Close detaches every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		h.detachLocked(c)
	}
}

var _ port.Publisher = (*Hub)(nil)
