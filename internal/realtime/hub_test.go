package realtime

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/datagrid-backend/internal/platform/logger"
)

func recvMessage(t *testing.T, ch <-chan SSEMessage, timeout time.Duration) SSEMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for SSE message")
	}
	return SSEMessage{}
}

func TestSSEHubOrderingAndReconnect(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	channel := uuid.New().String()

	clientA := hub.NewSSEClient()
	hub.AddChannel(clientA, channel)

	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventDatasetIngestStarted})
	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventDatasetIngestProgress, Data: map[string]any{"rows": 500}})

	assert.Equal(t, SSEEventDatasetIngestStarted, recvMessage(t, clientA.Outbound, time.Second).Event)
	assert.Equal(t, SSEEventDatasetIngestProgress, recvMessage(t, clientA.Outbound, time.Second).Event)

	hub.CloseClient(clientA)
	hub.CloseClient(clientA)
	_, ok := <-clientA.Outbound
	assert.False(t, ok, "outbound should be closed after disconnect")
	assert.Equal(t, 0, hub.Subscribers(channel))

	// Broadcasting after close must not panic.
	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventDatasetRowAdded})

	clientB := hub.NewSSEClient()
	hub.AddChannel(clientB, channel)
	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventDatasetIngestCompleted})
	assert.Equal(t, SSEEventDatasetIngestCompleted, recvMessage(t, clientB.Outbound, time.Second).Event)
}

func TestSSEHubChannelIsolation(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	a := hub.NewSSEClient()
	b := hub.NewSSEClient()
	hub.AddChannel(a, "ds-a")
	hub.AddChannel(b, "ds-b")

	hub.Broadcast(SSEMessage{Channel: "ds-a", Event: SSEEventDatasetRowDeleted})
	assert.Equal(t, SSEEventDatasetRowDeleted, recvMessage(t, a.Outbound, time.Second).Event)
	select {
	case msg := <-b.Outbound:
		t.Fatalf("unexpected message on other channel: %+v", msg)
	default:
	}

	hub.RemoveChannel(a, "ds-a")
	assert.Equal(t, 0, hub.Subscribers("ds-a"))
}

func TestSSEHubDropsWhenBufferFull(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	c := hub.NewSSEClient()
	hub.AddChannel(c, "ds")
	for i := 0; i < clientBufferSize+5; i++ {
		hub.Broadcast(SSEMessage{Channel: "ds", Event: SSEEventDatasetIngestProgress})
	}
	assert.Len(t, c.Outbound, clientBufferSize)
}

func TestSSEHubServeHTTPWritesEvents(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	client := hub.NewSSEClient()
	hub.AddChannel(client, "ds")

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		hub.ServeHTTP(rec, req, client)
		close(done)
	}()

	hub.Broadcast(SSEMessage{Channel: "ds", Event: SSEEventDatasetRowUpdated, Data: map[string]any{"id": "r1"}})
	require.Eventually(t, func() bool { return len(client.Outbound) == 0 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.True(t, strings.Contains(body, "event: DatasetRowUpdated"), body)
	assert.Contains(t, body, `"id":"r1"`)
}

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish(context.Context, SSEMessage) error {
	f.calls++
	return errors.New("redis down")
}

func TestEmitterFallsBackToHub(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	c := hub.NewSSEClient()
	hub.AddChannel(c, "ds")

	pub := &failingPublisher{}
	NewEmitter(hub, pub, logger.Nop()).Emit(context.Background(), SSEMessage{Channel: "ds", Event: SSEEventDatasetRowAdded})

	assert.Equal(t, 1, pub.calls)
	assert.Equal(t, SSEEventDatasetRowAdded, recvMessage(t, c.Outbound, time.Second).Event)
}
