// Package route encodes and decodes notification channel names.
//
// A route is an ordered list of segments joined by Separator, for example
// "task_ready/billing". Decoding needs the segment count up front: a route is
// only unambiguous when its arity is known.
package route

import (
	"errors"
	"fmt"
	"strings"
)

// Separator joins route segments.
const Separator = "/"

// TaskReady is the first segment of the per-namespace readiness topic.
const TaskReady = "task_ready"

// ErrEmptyRoute is returned when Build is called without segments.
var ErrEmptyRoute = errors.New("route cannot be empty")

// SegmentError reports a segment that contains the separator.
type SegmentError struct {
	Index   int
	Segment string
}

func (e *SegmentError) Error() string {
	return fmt.Sprintf("route segment %d (%q) must not contain %q", e.Index, e.Segment, Separator)
}

// Build joins segments with Separator.
func Build(segments ...string) (string, error) {
	if len(segments) == 0 {
		return "", ErrEmptyRoute
	}

	var b strings.Builder
	for i, seg := range segments {
		if strings.Contains(seg, Separator) {
			return "", &SegmentError{Index: i, Segment: seg}
		}
		if i > 0 {
			b.WriteString(Separator)
		}
		b.WriteString(seg)
	}
	return b.String(), nil
}

// MustBuild is like Build but panics on invalid input.
func MustBuild(segments ...string) string {
	s, err := Build(segments...)
	if err != nil {
		panic(err)
	}
	return s
}

// Parse splits s into exactly n segments. It reports false when s has more
// or fewer segments than n, so unrelated topics can be skipped cheaply.
func Parse(s string, n int) ([]string, bool) {
	if n <= 0 {
		return nil, false
	}
	// SplitN with n+1 leaves any surplus in a trailing element.
	parts := strings.SplitN(s, Separator, n+1)
	if len(parts) != n {
		return nil, false
	}
	return parts, true
}

// ForNamespace returns the readiness topic for namespace.
func ForNamespace(namespace string) (string, error) {
	return Build(TaskReady, namespace)
}

// NamespaceOf extracts the namespace from a readiness topic.
func NamespaceOf(channel string) (string, bool) {
	parts, ok := Parse(channel, 2)
	if !ok || parts[0] != TaskReady {
		return "", false
	}
	return parts[1], true
}
