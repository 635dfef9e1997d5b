package notify

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
)

const (
	PushQueue      = "push"
	ActionPushSend = "push.send"
)

// Gateway delivers one push notification to every device of a user.
type Gateway interface {
	Send(ctx context.Context, userID, title, body string, data map[string]string) error
}

type Publisher interface {
	Emit(ctx context.Context, service string, action string, data []byte) error
}

type Push struct {
	UserID string            `json:"userId"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
}

// QueueGateway hands pushes to the push provider worker over the message
// broker.
type QueueGateway struct {
	publisher Publisher
}

func NewQueueGateway(publisher Publisher) *QueueGateway {
	return &QueueGateway{publisher: publisher}
}

func (g *QueueGateway) Send(ctx context.Context, userID, title, body string, data map[string]string) error {
	payload, err := json.Marshal(Push{UserID: userID, Title: title, Body: body, Data: data})
	if err != nil {
		return errors.Wrap(err, "queueGateway.Send")
	}
	return errors.Wrap(g.publisher.Emit(ctx, PushQueue, ActionPushSend, payload), "queueGateway.Send")
}
