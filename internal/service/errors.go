package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNoNamespaces is returned when a service is built without namespaces.
	ErrNoNamespaces = errors.New("at least one namespace is required")

	// ErrSubscription wraps every failure of the notification subscription.
	// It is terminal: the service must be closed and rebuilt.
	ErrSubscription = errors.New("notification subscription failed")

	// ErrNotSubscribed is returned by Next on a producer-only service.
	ErrNotSubscribed = errors.New("service has no notification subscription")

	// ErrUnauthorizedNamespace is returned by NotifyReady for a namespace
	// outside the service's set.
	ErrUnauthorizedNamespace = errors.New("namespace not authorized for this service")

	// ErrInvalidStatus is returned by Push when a task carries an unknown status.
	ErrInvalidStatus = errors.New("invalid task status")
)

// NamespaceError reports a namespace name that cannot be used in a topic.
type NamespaceError struct {
	Namespace string
	Reason    string
}

func (e *NamespaceError) Error() string {
	return fmt.Sprintf("invalid namespace %q: %s", e.Namespace, e.Reason)
}

func subscriptionError(err error) error {
	return fmt.Errorf("%w: %w", ErrSubscription, err)
}
