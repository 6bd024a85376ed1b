// Package pgnotify subscribes to PostgreSQL LISTEN/NOTIFY channels over a
// dedicated connection and feeds the notifications into a channels.Hub.
package pgnotify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taskbase/taskbase/internal/channels"
)

var (
	// ErrAlreadySubscribed is returned by a second Subscribe call.
	ErrAlreadySubscribed = errors.New("listener already subscribed")
	// ErrClosed is the hub failure recorded when the listener is closed.
	ErrClosed = errors.New("listener closed")
)

// Listener owns one connection that is used only for LISTEN.
type Listener struct {
	conn   *pgx.Conn
	hub    *channels.Hub
	logger *slog.Logger

	mu       sync.Mutex
	started  bool
	closed   bool
	channels []string
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// Connect takes a connection out of pool for exclusive use by the listener.
// The connection keeps the pool's settings (search path included) but is no
// longer returned to the pool.
func Connect(ctx context.Context, pool *pgxpool.Pool, hub *channels.Hub, logger *slog.Logger) (*Listener, error) {
	pooled, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire listener connection: %w", err)
	}
	conn := pooled.Hijack()

	appName := "taskbase-listener-" + uuid.NewString()
	if _, err := conn.Exec(ctx, "SELECT set_config('application_name', $1, false)", appName); err != nil {
		conn.Close(context.Background())
		return nil, fmt.Errorf("failed to set application name: %w", err)
	}

	l := New(conn, hub, logger)
	l.logger = l.logger.With("application_name", appName)
	return l, nil
}

// New wraps an already established connection.
func New(conn *pgx.Conn, hub *channels.Hub, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{
		conn:   conn,
		hub:    hub,
		logger: logger.With("component", "pgnotify"),
	}
}

// Subscribe issues LISTEN for every topic and then starts receiving. It may
// be called once; the connection belongs to the receive loop afterwards.
func (l *Listener) Subscribe(ctx context.Context, topics []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}
	if l.started {
		return ErrAlreadySubscribed
	}

	for _, topic := range topics {
		if _, err := l.conn.Exec(ctx, "LISTEN "+pgx.Identifier{topic}.Sanitize()); err != nil {
			return fmt.Errorf("failed to listen on %q: %w", topic, err)
		}
	}
	l.channels = append([]string(nil), topics...)

	loopCtx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.started = true
	l.wg.Add(1)
	go l.receive(loopCtx)

	l.logger.Info("Listening for notifications", "channels", len(topics))
	return nil
}

// Channels returns the topics passed to Subscribe.
func (l *Listener) Channels() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.channels...)
}

// Wait blocks for the next notification.
func (l *Listener) Wait(ctx context.Context) (channels.Notification, error) {
	return l.hub.Wait(ctx)
}

// Buffered returns a notification that has already been received, if any.
func (l *Listener) Buffered() (channels.Notification, bool, error) {
	return l.hub.Buffered()
}

// Close stops the receive loop and closes the connection. Pending and future
// waits fail with ErrClosed.
func (l *Listener) Close(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	cancel := l.cancel
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	l.wg.Wait()
	l.hub.Fail(ErrClosed)

	return l.conn.Close(ctx)
}

func (l *Listener) receive(ctx context.Context) {
	defer l.wg.Done()

	for {
		n, err := l.conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.hub.Fail(ErrClosed)
				return
			}
			l.logger.Error("Notification connection failed", "error", err)
			l.hub.Fail(fmt.Errorf("wait for notification: %w", err))
			return
		}

		err = l.hub.Publish(ctx, channels.Notification{
			PID:        n.PID,
			Channel:    n.Channel,
			Payload:    n.Payload,
			ReceivedAt: time.Now(),
		})
		if err != nil {
			return
		}
	}
}
