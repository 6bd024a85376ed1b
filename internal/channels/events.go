package channels

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrHubClosed is reported by a Hub that was closed without a failure.
var ErrHubClosed = errors.New("notification hub closed")

// Notification is a single NOTIFY message received on a listened channel
type Notification struct {
	PID        uint32
	Channel    string
	Payload    string
	ReceivedAt time.Time
}

// Hub carries notifications from a listener goroutine to a consumer
type Hub struct {
	notifications chan Notification

	// Terminal state
	done    chan struct{}
	errOnce sync.Once
	err     error
}

// NewHub creates a Hub with the configured buffer size
func NewHub(cfg HubConfig) *Hub {
	size := cfg.BufferSize
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Hub{
		notifications: make(chan Notification, size),
		done:          make(chan struct{}),
	}
}

// Publish queues n, blocking while the buffer is full. It fails once the hub
// is done or ctx is cancelled.
func (h *Hub) Publish(ctx context.Context, n Notification) error {
	select {
	case <-h.done:
		return h.err
	default:
	}

	select {
	case h.notifications <- n:
		return nil
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryPublish queues n without blocking. It reports false when the buffer is
// full or the hub is done.
func (h *Hub) TryPublish(n Notification) bool {
	select {
	case <-h.done:
		return false
	default:
	}

	select {
	case h.notifications <- n:
		return true
	default:
		return false
	}
}

// Fail marks the hub as failed with err. Only the first call has an effect.
func (h *Hub) Fail(err error) {
	if err == nil {
		err = ErrHubClosed
	}
	h.errOnce.Do(func() {
		h.err = err
		close(h.done)
	})
}

// Wait blocks until a notification is available, the hub fails, or ctx is done.
func (h *Hub) Wait(ctx context.Context) (Notification, error) {
	// Queued notifications win over a failure that arrived after them.
	if n, ok, _ := h.Buffered(); ok {
		return n, nil
	}

	select {
	case n := <-h.notifications:
		return n, nil
	case <-h.done:
		if n, ok, _ := h.Buffered(); ok {
			return n, nil
		}
		return Notification{}, h.err
	case <-ctx.Done():
		return Notification{}, ctx.Err()
	}
}

// Buffered returns an already queued notification without blocking. When
// nothing is queued it reports false, with the failure if the hub is done.
func (h *Hub) Buffered() (Notification, bool, error) {
	select {
	case n := <-h.notifications:
		return n, true, nil
	default:
	}

	select {
	case <-h.done:
		return Notification{}, false, h.err
	default:
		return Notification{}, false, nil
	}
}

// Len returns the number of queued notifications
func (h *Hub) Len() int {
	return len(h.notifications)
}

// Close shuts the hub down
func (h *Hub) Close() error {
	h.Fail(ErrHubClosed)
	return nil
}

// Done returns a channel that's closed when the hub has failed or closed
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Err returns the terminal error, or nil while the hub is live
func (h *Hub) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}
