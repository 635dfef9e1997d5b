package chat

// Client is one authenticated socket. Several clients may share a user id.
type Client interface {
	ID() string
	UserID() string
	Emit(event string, payload any)
	Join(room string)
	Leave(room string)
	InRoom(room string) bool
	// Broadcast delivers once to every socket in the union of rooms, except
	// this one.
	Broadcast(rooms []string, event string, payload any)
}

// Broadcaster delivers once to every socket in the union of rooms.
type Broadcaster interface {
	ToRooms(rooms []string, event string, payload any)
}

func UserRoom(userID string) string {
	return "user:" + userID
}

func ConversationRoom(conversationID string) string {
	return "conversation:" + conversationID
}
