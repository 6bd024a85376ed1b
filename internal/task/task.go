// Package task holds the task records exchanged with the store.
package task

import (
	"errors"
	"fmt"
)

// Status is the lifecycle state of a task.
type Status uint8

const (
	StatusBlocking Status = iota + 1
	StatusReady
	StatusProcessing
	StatusTerminated
)

// ErrUnknownStatus is returned when decoding a string that names no Status.
var ErrUnknownStatus = errors.New("unknown task status")

var statusNames = map[Status]string{
	StatusBlocking:   "blocking",
	StatusReady:      "ready",
	StatusProcessing: "processing",
	StatusTerminated: "terminated",
}

// Statuses lists every valid status.
func Statuses() []Status {
	return []Status{StatusBlocking, StatusReady, StatusProcessing, StatusTerminated}
}

// String returns the wire encoding of s.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// Valid reports whether s is one of the four defined statuses.
func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// ParseStatus decodes a wire string. Anything other than the four lowercase
// names is rejected.
func ParseStatus(s string) (Status, bool) {
	switch s {
	case "blocking":
		return StatusBlocking, true
	case "ready":
		return StatusReady, true
	case "processing":
		return StatusProcessing, true
	case "terminated":
		return StatusTerminated, true
	}
	return 0, false
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatus, uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, ok := ParseStatus(string(text))
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, text)
	}
	*s = parsed
	return nil
}

// ReadyTask is a row returned by the store's ready-task selection.
type ReadyTask struct {
	ID        int64  `json:"id"`
	Namespace string `json:"namespace"`
	TaskName  string `json:"task_name"`
	Context   []byte `json:"context"`
}

// PushTask stages an insert (ID == nil) or an update of an existing task.
type PushTask struct {
	ID        *int64 `json:"id,omitempty"`
	Namespace string `json:"namespace"`
	TaskName  string `json:"task_name"`
	Context   []byte `json:"context"`
	Status    Status `json:"status"`
}

// Columns is a batch of PushTasks laid out column by column, ready to be
// bound as array parameters.
type Columns struct {
	IDs        []*int64
	Namespaces []string
	TaskNames  []string
	Contexts   [][]byte
	Statuses   []string
}

// NewColumns splits tasks into aligned columns, keeping their order.
func NewColumns(tasks []PushTask) Columns {
	c := Columns{
		IDs:        make([]*int64, len(tasks)),
		Namespaces: make([]string, len(tasks)),
		TaskNames:  make([]string, len(tasks)),
		Contexts:   make([][]byte, len(tasks)),
		Statuses:   make([]string, len(tasks)),
	}
	for i, t := range tasks {
		c.IDs[i] = t.ID
		c.Namespaces[i] = t.Namespace
		c.TaskNames[i] = t.TaskName
		// A nil slice would bind as NULL inside the bytea[] parameter.
		c.Contexts[i] = t.Context
		if c.Contexts[i] == nil {
			c.Contexts[i] = []byte{}
		}
		c.Statuses[i] = t.Status.String()
	}
	return c
}

// Len returns the number of rows in the batch.
func (c Columns) Len() int {
	return len(c.Namespaces)
}
