package websocket

import (
	"testing"
	"time"

	"beatvault/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiveMessage(t *testing.T, c *Client) types.ScanMessage {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
		return types.ScanMessage{}
	}
}

// TestHubBroadcastProgress tests that progress updates reach registered clients
func TestHubBroadcastProgress(t *testing.T) {
	h := NewHub()
	go h.Run()

	client := NewClient(h, nil)
	h.RegisterClient(client)

	h.BroadcastProgress(types.ScanProgress{Current: 3, Total: 10, Percentage: 30})

	msg := receiveMessage(t, client)
	assert.Equal(t, "progress", msg.Type)
	assert.Equal(t, 3, msg.Progress.Current)
	assert.Equal(t, 10, msg.Progress.Total)
	assert.Equal(t, 30, msg.Progress.Percentage)
	assert.False(t, msg.Timestamp.IsZero())
}

// TestHubBroadcastScan tests typed completion messages
func TestHubBroadcastScan(t *testing.T) {
	h := NewHub()
	go h.Run()

	client := NewClient(h, nil)
	h.RegisterClient(client)

	h.BroadcastScan("complete", types.ScanProgress{Current: 5, Total: 5, Percentage: 100}, "2 folders skipped")

	msg := receiveMessage(t, client)
	assert.Equal(t, "complete", msg.Type)
	assert.Equal(t, "2 folders skipped", msg.Message)
	assert.Equal(t, 100, msg.Progress.Percentage)
}

// TestHubUnregister tests that unregistering closes the client's channel
func TestHubUnregister(t *testing.T) {
	h := NewHub()
	go h.Run()

	client := NewClient(h, nil)
	h.RegisterClient(client)
	h.UnregisterClient(client)

	select {
	case _, ok := <-client.send:
		require.False(t, ok, "send channel must be closed after unregister")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}
