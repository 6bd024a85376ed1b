package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/taskbase/taskbase/internal/channels"
	"github.com/taskbase/taskbase/internal/route"
	"github.com/taskbase/taskbase/internal/task"
)

// ErrUnknownNamespace is returned by Memory when a task references a
// namespace that was never registered.
var ErrUnknownNamespace = errors.New("namespace is not registered")

type memTask struct {
	task.ReadyTask
	Status task.Status
}

// Memory is an in-process store with the same observable behaviour as the
// PostgreSQL schema: fetching claims ready tasks, and a task entering the
// ready state notifies task_ready/<namespace>.
type Memory struct {
	mu         sync.RWMutex
	namespaces map[string]struct{}
	tasks      map[int64]*memTask
	nextID     int64

	subscribers []*MemorySubscriber
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		namespaces: make(map[string]struct{}),
		tasks:      make(map[int64]*memTask),
		nextID:     1,
	}
}

// RegisterNamespaces adds namespaces, ignoring ones already present.
func (m *Memory) RegisterNamespaces(_ context.Context, namespaces []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ns := range namespaces {
		m.namespaces[ns] = struct{}{}
	}
	return nil
}

// FetchReady claims every ready task in namespaces, oldest first.
func (m *Memory) FetchReady(_ context.Context, namespaces []string) ([]task.ReadyTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []task.ReadyTask{}
	for _, t := range m.tasks {
		if t.Status == task.StatusReady && slices.Contains(namespaces, t.Namespace) {
			t.Status = task.StatusProcessing
			out = append(out, t.ReadyTask)
		}
	}
	slices.SortFunc(out, func(a, b task.ReadyTask) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out, nil
}

// PushTasks inserts rows without id and updates existing ones. The batch is
// rejected as a whole when any row is invalid.
func (m *Memory) PushTasks(_ context.Context, cols task.Columns) error {
	n := cols.Len()
	if len(cols.IDs) != n || len(cols.TaskNames) != n || len(cols.Contexts) != n || len(cols.Statuses) != n {
		return ErrColumnMismatch
	}

	m.mu.Lock()
	statuses := make([]task.Status, n)
	for i := 0; i < n; i++ {
		if _, ok := m.namespaces[cols.Namespaces[i]]; !ok {
			m.mu.Unlock()
			return fmt.Errorf("%w: %q", ErrUnknownNamespace, cols.Namespaces[i])
		}
		st, ok := task.ParseStatus(cols.Statuses[i])
		if !ok {
			m.mu.Unlock()
			return fmt.Errorf("%w: %q", task.ErrUnknownStatus, cols.Statuses[i])
		}
		statuses[i] = st
	}

	var ready []channels.Notification
	for i := 0; i < n; i++ {
		var t *memTask
		if cols.IDs[i] == nil {
			t = &memTask{ReadyTask: task.ReadyTask{ID: m.nextID}}
			m.tasks[m.nextID] = t
			m.nextID++
		} else {
			existing, ok := m.tasks[*cols.IDs[i]]
			if !ok {
				continue
			}
			t = existing
		}

		wasReady := t.Status == task.StatusReady
		t.Namespace = cols.Namespaces[i]
		t.TaskName = cols.TaskNames[i]
		t.Context = slices.Clone(cols.Contexts[i])
		t.Status = statuses[i]

		if t.Status == task.StatusReady && !wasReady {
			ready = append(ready, channels.Notification{
				Channel: route.MustBuild(route.TaskReady, t.Namespace),
				Payload: strconv.FormatInt(t.ID, 10),
			})
		}
	}
	m.mu.Unlock()

	for _, note := range ready {
		m.deliver(note)
	}
	return nil
}

// Notify delivers payload to every subscriber listening on channel.
func (m *Memory) Notify(_ context.Context, channel, payload string) error {
	m.deliver(channels.Notification{Channel: channel, Payload: payload})
	return nil
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error {
	return nil
}

// Status returns the status of task id.
func (m *Memory) Status(id int64) (task.Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return 0, false
	}
	return t.Status, true
}

// deliver never blocks: a subscriber with a full buffer misses the
// notification, while the task itself stays visible to FetchReady.
func (m *Memory) deliver(n channels.Notification) {
	n.ReceivedAt = time.Now()

	m.mu.RLock()
	subs := slices.Clone(m.subscribers)
	m.mu.RUnlock()

	for _, s := range subs {
		if s.listening(n.Channel) {
			s.hub.TryPublish(n)
		}
	}
}

// Subscriber returns a subscriber that receives this store's notifications.
func (m *Memory) Subscriber(cfg channels.HubConfig) *MemorySubscriber {
	s := &MemorySubscriber{
		store: m,
		hub:   channels.NewHub(cfg),
	}
	m.mu.Lock()
	m.subscribers = append(m.subscribers, s)
	m.mu.Unlock()
	return s
}

// MemorySubscriber delivers Memory notifications for subscribed topics
type MemorySubscriber struct {
	store *Memory
	hub   *channels.Hub

	mu     sync.RWMutex
	topics map[string]struct{}
}

func (s *MemorySubscriber) listening(channel string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.topics[channel]
	return ok
}

// Subscribe starts delivery for topics.
func (s *MemorySubscriber) Subscribe(_ context.Context, topics []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.topics == nil {
		s.topics = make(map[string]struct{}, len(topics))
	}
	for _, t := range topics {
		s.topics[t] = struct{}{}
	}
	return nil
}

// Wait blocks for the next notification.
func (s *MemorySubscriber) Wait(ctx context.Context) (channels.Notification, error) {
	return s.hub.Wait(ctx)
}

// Buffered returns an already delivered notification, if any.
func (s *MemorySubscriber) Buffered() (channels.Notification, bool, error) {
	return s.hub.Buffered()
}

// Close detaches the subscriber from the store.
func (s *MemorySubscriber) Close(context.Context) error {
	s.store.mu.Lock()
	s.store.subscribers = slices.DeleteFunc(s.store.subscribers, func(o *MemorySubscriber) bool { return o == s })
	s.store.mu.Unlock()
	return s.hub.Close()
}
