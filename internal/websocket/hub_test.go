package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_RegisterAndBroadcast(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	alice := NewClient(nil, "alice")
	aliceTablet := NewClient(nil, "alice")
	bob := NewClient(nil, "bob")

	hub.Register(alice)
	hub.Register(aliceTablet)
	hub.Register(bob)

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 3
	}, time.Second, 5*time.Millisecond)

	hub.BroadcastToUser("alice", []byte("badge"))

	// Every connection the user holds gets the payload; others none.
	assert.Equal(t, "badge", string(<-alice.Send))
	assert.Equal(t, "badge", string(<-aliceTablet.Send))
	assert.Empty(t, bob.Send)

	hub.Unregister(bob)
	require.Eventually(t, func() bool {
		return hub.ClientCount() == 2
	}, time.Second, 5*time.Millisecond)

	t.Run("unregistered client's send channel is closed", func(t *testing.T) {
		_, open := <-bob.Send
		assert.False(t, open)
	})
}

func TestClient_SendAfterUnregisterIsDropped(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	client := NewClient(nil, "alice")
	hub.Register(client)
	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, time.Second, 5*time.Millisecond)

	hub.Unregister(client)
	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, time.Second, 5*time.Millisecond)

	// A bus delivery racing the disconnect lands after teardown; it is
	// dropped, not sent on the closed channel.
	client.SendMessage([]byte("late"))

	_, open := <-client.Send
	assert.False(t, open)

	// Teardown is idempotent.
	client.CloseSend()
}

func TestClient_SendMessageDropsWhenFull(t *testing.T) {
	client := NewClient(nil, "alice")
	for i := 0; i < cap(client.Send)+10; i++ {
		client.SendMessage([]byte("x"))
	}
	assert.Len(t, client.Send, cap(client.Send))
}
