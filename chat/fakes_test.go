package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Top-Pesinde/backend-sub001/model"
	"github.com/Top-Pesinde/backend-sub001/repository"
)

type emitted struct {
	event   string
	payload any
}

// hub is an in-process stand-in for the socket server and its rooms.
type hub struct {
	mu      sync.Mutex
	seq     int
	clients map[string]*fakeClient
}

func newHub() *hub {
	return &hub{clients: map[string]*fakeClient{}}
}

// connect admits a socket the way the gateway does: bound to its user room.
func (h *hub) connect(userID string) *fakeClient {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	c := &fakeClient{
		id:     fmt.Sprintf("sock-%d", h.seq),
		userID: userID,
		hub:    h,
		rooms:  map[string]bool{UserRoom(userID): true},
	}
	h.clients[c.id] = c
	return c
}

func (h *hub) disconnect(c *fakeClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c.id)
}

func (h *hub) ToRooms(rooms []string, event string, payload any) {
	h.deliver(rooms, event, payload, "")
}

func (h *hub) deliver(rooms []string, event string, payload any, except string) {
	h.mu.Lock()
	targets := make([]*fakeClient, 0, len(h.clients))
	for id, c := range h.clients {
		if id == except {
			continue
		}
		for _, room := range rooms {
			if c.InRoom(room) {
				targets = append(targets, c)
				break
			}
		}
	}
	h.mu.Unlock()

	for _, c := range targets {
		c.record(event, payload)
	}
}

type fakeClient struct {
	id     string
	userID string
	hub    *hub

	mu     sync.Mutex
	rooms  map[string]bool
	events []emitted
}

func (c *fakeClient) ID() string     { return c.id }
func (c *fakeClient) UserID() string { return c.userID }

func (c *fakeClient) Emit(event string, payload any) {
	c.record(event, payload)
}

func (c *fakeClient) Join(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[room] = true
}

func (c *fakeClient) Leave(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, room)
}

func (c *fakeClient) InRoom(room string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rooms[room]
}

func (c *fakeClient) Broadcast(rooms []string, event string, payload any) {
	c.hub.deliver(rooms, event, payload, c.id)
}

func (c *fakeClient) record(event string, payload any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, emitted{event: event, payload: payload})
}

func (c *fakeClient) received(event string) []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []any
	for _, e := range c.events {
		if e.event == event {
			out = append(out, e.payload)
		}
	}
	return out
}

func (c *fakeClient) count(event string) int {
	return len(c.received(event))
}

func (c *fakeClient) last(event string) any {
	got := c.received(event)
	if len(got) == 0 {
		return nil
	}
	return got[len(got)-1]
}

func (c *fakeClient) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}

// storeUnread always recomputes from the message table.
type storeUnread struct {
	messages *repository.MessageRepository
}

func (u storeUnread) Get(ctx context.Context, conversationID, userID string) (int64, error) {
	return u.messages.CountUnread(ctx, conversationID, userID)
}

func (storeUnread) Invalidate(context.Context, string, string) {}

type recordingEscalator struct {
	mu        sync.Mutex
	armed     []string
	cancelled []string
}

func (e *recordingEscalator) Arm(msg *model.Message) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.armed = append(e.armed, msg.ID)
}

func (e *recordingEscalator) CancelConversation(conversationID, receiverID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelled = append(e.cancelled, conversationID+"/"+receiverID)
	return 0
}

func (e *recordingEscalator) armedCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.armed)
}

type panickingGuard struct{}

func (panickingGuard) CheckSend(context.Context, string, string) error {
	panic("boom")
}

// interleavedMessages runs afterMarkRead once, between the read update and
// whatever the service does next.
type interleavedMessages struct {
	*repository.MessageRepository
	afterMarkRead func()
}

func (m *interleavedMessages) MarkRead(ctx context.Context, conversationID, receiverID string, at time.Time) (int64, error) {
	n, err := m.MessageRepository.MarkRead(ctx, conversationID, receiverID, at)
	if hook := m.afterMarkRead; hook != nil {
		m.afterMarkRead = nil
		hook()
	}
	return n, err
}
