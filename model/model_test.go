package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNormalizePair(t *testing.T) {
	req := require.New(t)

	a, b := NormalizePair("bob", "alice")
	req.Equal("alice", a)
	req.Equal("bob", b)

	a2, b2 := NormalizePair("alice", "bob")
	req.Equal(a, a2)
	req.Equal(b, b2)
}

func TestConversation_Peer(t *testing.T) {
	req := require.New(t)

	c := Conversation{ParticipantA: "alice", ParticipantB: "bob"}
	req.Equal("bob", c.Peer("alice"))
	req.Equal("alice", c.Peer("bob"))
	req.True(c.HasParticipant("bob"))
	req.False(c.HasParticipant("carol"))
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()
	s := Session{ExpiresAt: now}

	require.True(t, s.Expired(now))
	require.False(t, s.Expired(now.Add(-time.Second)))
}
