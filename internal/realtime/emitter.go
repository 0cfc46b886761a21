package realtime

import (
	"context"

	"github.com/yungbote/datagrid-backend/internal/platform/logger"
)

// Emitter publishes dataset events. Implementations never fail the caller.
type Emitter interface {
	Emit(ctx context.Context, msg SSEMessage)
}

// Publisher is the cross-instance transport, satisfied by bus.Bus.
type Publisher interface {
	Publish(ctx context.Context, msg SSEMessage) error
}

type hubEmitter struct {
	hub *SSEHub
	pub Publisher
	log *logger.Logger
}

// NewEmitter broadcasts straight to hub, or through pub when it is set and
// a forwarder feeds the hub from the other side.
func NewEmitter(hub *SSEHub, pub Publisher, log *logger.Logger) Emitter {
	return &hubEmitter{hub: hub, pub: pub, log: log.With("component", "SSEEmitter")}
}

func (e *hubEmitter) Emit(ctx context.Context, msg SSEMessage) {
	if e.pub != nil {
		err := e.pub.Publish(ctx, msg)
		if err == nil {
			return
		}
		e.log.Warn("SSE bus publish failed; delivering locally", "event", msg.Event, "error", err)
	}
	if e.hub != nil {
		e.hub.Broadcast(msg)
	}
}

// NopEmitter discards events.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, SSEMessage) {}
