package chat

import "sync"

type typingKey struct {
	conversationID string
	userID         string
}

// Presence holds who is typing where. It lives in memory only.
type Presence struct {
	mu     sync.Mutex
	typing map[typingKey]string // value is the socket id
}

func NewPresence() *Presence {
	return &Presence{typing: make(map[typingKey]string)}
}

// Start reports whether the user was not already typing in the conversation.
func (p *Presence) Start(conversationID, userID, socketID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := typingKey{conversationID: conversationID, userID: userID}
	_, exists := p.typing[key]
	p.typing[key] = socketID
	return !exists
}

// Stop reports whether the user was typing.
func (p *Presence) Stop(conversationID, userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := typingKey{conversationID: conversationID, userID: userID}
	if _, ok := p.typing[key]; !ok {
		return false
	}
	delete(p.typing, key)
	return true
}

// DropSocket clears every typing state last refreshed by socketID and returns
// the affected conversations.
func (p *Presence) DropSocket(socketID string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var conversations []string
	for key, owner := range p.typing {
		if owner == socketID {
			delete(p.typing, key)
			conversations = append(conversations, key.conversationID)
		}
	}
	return conversations
}

func (p *Presence) Typing(conversationID string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var users []string
	for key := range p.typing {
		if key.conversationID == conversationID {
			users = append(users, key.userID)
		}
	}
	return users
}
