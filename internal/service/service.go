// Package service is the namespaced task-queue client.
//
// A Service is bound to a fixed set of namespaces. It registers them with the
// store, listens on one task_ready/<namespace> topic per namespace, and turns
// bursts of readiness notifications into single batched fetches. Producers
// push task updates through the same service, restricted to its namespaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/taskbase/taskbase/internal/channels"
	"github.com/taskbase/taskbase/internal/route"
	"github.com/taskbase/taskbase/internal/task"
)

// Store is the batched database surface used by Service.
type Store interface {
	RegisterNamespaces(ctx context.Context, namespaces []string) error
	FetchReady(ctx context.Context, namespaces []string) ([]task.ReadyTask, error)
	PushTasks(ctx context.Context, cols task.Columns) error
	Notify(ctx context.Context, channel, payload string) error
}

// Subscriber delivers notifications for the topics it subscribed to.
type Subscriber interface {
	Subscribe(ctx context.Context, topics []string) error
	Wait(ctx context.Context) (channels.Notification, error)
	Buffered() (channels.Notification, bool, error)
	Close(ctx context.Context) error
}

// Service is a task-queue client scoped to a set of namespaces. Next must not
// be called concurrently; Push, FetchReady and Notify are safe for concurrent use.
type Service struct {
	namespaces namespaceSet
	store      Store
	sub        Subscriber
	logger     *slog.Logger
}

// New registers namespaces with the store and subscribes to their readiness
// topics. On any failure sub is closed and no Service is returned.
func New(ctx context.Context, store Store, sub Subscriber, namespaces []string, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	set, err := newNamespaceSet(namespaces)
	if err != nil {
		closeQuietly(sub, logger)
		return nil, err
	}

	s := &Service{
		namespaces: set,
		store:      store,
		sub:        sub,
		logger:     logger.With("component", "service"),
	}

	if err := store.RegisterNamespaces(ctx, set.names); err != nil {
		closeQuietly(sub, logger)
		return nil, err
	}

	if err := sub.Subscribe(ctx, set.topics()); err != nil {
		closeQuietly(sub, logger)
		return nil, subscriptionError(err)
	}

	s.logger.Info("Service ready", "namespaces", set.names)
	return s, nil
}

// NewProducer registers namespaces without subscribing. The returned Service
// can push and notify; Next fails with ErrNotSubscribed.
func NewProducer(ctx context.Context, store Store, namespaces []string, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	set, err := newNamespaceSet(namespaces)
	if err != nil {
		return nil, err
	}
	if err := store.RegisterNamespaces(ctx, set.names); err != nil {
		return nil, err
	}

	s := &Service{
		namespaces: set,
		store:      store,
		logger:     logger.With("component", "service"),
	}
	s.logger.Info("Producer ready", "namespaces", set.names)
	return s, nil
}

func closeQuietly(sub Subscriber, logger *slog.Logger) {
	if err := sub.Close(context.Background()); err != nil {
		logger.Warn("Failed to close subscriber", "error", err)
	}
}

// Namespaces returns the authorized namespaces in registration order.
func (s *Service) Namespaces() []string {
	return append([]string(nil), s.namespaces.names...)
}

// Authorized reports whether namespace belongs to this service.
func (s *Service) Authorized(namespace string) bool {
	return s.namespaces.contains(namespace)
}

// Next blocks until at least one authorized namespace is signalled ready,
// drains every notification already received, and fetches ready tasks for
// the affected namespaces in a single round trip.
func (s *Service) Next(ctx context.Context) ([]task.ReadyTask, error) {
	if s.sub == nil {
		return nil, ErrNotSubscribed
	}

	pending := newPendingSet(len(s.namespaces.names))
	received := 0

	for {
		var n channels.Notification
		if pending.empty() {
			var err error
			n, err = s.sub.Wait(ctx)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
					return nil, err
				}
				return nil, subscriptionError(err)
			}
		} else {
			var ok bool
			var err error
			n, ok, err = s.sub.Buffered()
			if err != nil {
				return nil, subscriptionError(err)
			}
			if !ok {
				break
			}
		}

		received++
		ns, ok := route.NamespaceOf(n.Channel)
		if !ok {
			continue
		}
		if i, ok := s.namespaces.lookup(ns); ok {
			pending.add(i)
		}
	}

	namespaces := pending.resolve(s.namespaces)
	s.logger.Debug("Drained notifications",
		"received", received,
		"namespaces", namespaces,
	)
	return s.fetch(ctx, namespaces)
}

// FetchReady fetches ready tasks without waiting for a notification. With no
// arguments every authorized namespace is queried; unauthorized names are
// ignored.
func (s *Service) FetchReady(ctx context.Context, namespaces ...string) ([]task.ReadyTask, error) {
	if len(namespaces) == 0 {
		return s.fetch(ctx, s.namespaces.names)
	}

	pending := newPendingSet(len(s.namespaces.names))
	for _, ns := range namespaces {
		if i, ok := s.namespaces.lookup(ns); ok {
			pending.add(i)
		}
	}
	return s.fetch(ctx, pending.resolve(s.namespaces))
}

func (s *Service) fetch(ctx context.Context, namespaces []string) ([]task.ReadyTask, error) {
	if len(namespaces) == 0 {
		return []task.ReadyTask{}, nil
	}
	return s.store.FetchReady(ctx, namespaces)
}

// Push inserts or updates tasks in one round trip. Tasks for namespaces
// outside this service are dropped without error.
func (s *Service) Push(ctx context.Context, tasks []task.PushTask) error {
	allowed := make([]task.PushTask, 0, len(tasks))
	for _, t := range tasks {
		if !s.namespaces.contains(t.Namespace) {
			continue
		}
		if !t.Status.Valid() {
			return fmt.Errorf("%w: task %q in %q has %v", ErrInvalidStatus, t.TaskName, t.Namespace, t.Status)
		}
		allowed = append(allowed, t)
	}

	if dropped := len(tasks) - len(allowed); dropped > 0 {
		s.logger.Debug("Dropped tasks for unauthorized namespaces", "dropped", dropped)
	}
	if len(allowed) == 0 {
		return nil
	}

	return s.store.PushTasks(ctx, task.NewColumns(allowed))
}

// Notify sends payload on an arbitrary channel.
func (s *Service) Notify(ctx context.Context, channel, payload string) error {
	return s.store.Notify(ctx, channel, payload)
}

// NotifyReady signals task_ready/<namespace>.
func (s *Service) NotifyReady(ctx context.Context, namespace, payload string) error {
	if !s.namespaces.contains(namespace) {
		return fmt.Errorf("%w: %q", ErrUnauthorizedNamespace, namespace)
	}
	return s.store.Notify(ctx, route.MustBuild(route.TaskReady, namespace), payload)
}

// Close releases the subscription.
func (s *Service) Close(ctx context.Context) error {
	if s.sub == nil {
		return nil
	}
	return s.sub.Close(ctx)
}
