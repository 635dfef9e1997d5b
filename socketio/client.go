package socketio

import (
	"log/slog"

	"github.com/Top-Pesinde/backend-sub001/utils"

	"github.com/zishang520/socket.io/v2/socket"
)

// Client adapts an admitted socket to chat.Client.
type Client struct {
	socket *socket.Socket
	claims *utils.Claims
	log    *slog.Logger
}

// NewClient returns nil when the socket carries no admitted identity.
func NewClient(s *socket.Socket, log *slog.Logger) *Client {
	claims, ok := s.Data().(*utils.Claims)
	if !ok || claims == nil {
		return nil
	}
	return &Client{socket: s, claims: claims, log: log}
}

func (c *Client) ID() string {
	return string(c.socket.Id())
}

func (c *Client) UserID() string {
	return c.claims.UserID
}

func (c *Client) Claims() *utils.Claims {
	return c.claims
}

func (c *Client) Emit(event string, payload any) {
	if err := c.socket.Emit(event, payload); err != nil {
		c.log.Warn("Socket emit failed", "event", event, "socket", c.ID(), "error", err)
	}
}

func (c *Client) Join(room string) {
	c.socket.Join(socket.Room(room))
}

func (c *Client) Leave(room string) {
	c.socket.Leave(socket.Room(room))
}

func (c *Client) InRoom(room string) bool {
	return c.socket.Rooms().Has(socket.Room(room))
}

func (c *Client) Broadcast(rooms []string, event string, payload any) {
	if len(rooms) == 0 {
		return
	}
	if err := c.socket.To(toRooms(rooms)...).Emit(event, payload); err != nil {
		c.log.Warn("Socket broadcast failed", "event", event, "socket", c.ID(), "error", err)
	}
}

func (c *Client) On(event string, fn func(args ...any)) {
	c.socket.On(event, fn)
}
