package main

import (
	"encoding/json"

	"github.com/taskbase/taskbase/internal/task"
)

// taskLine is the listen output format. Context is written the way push and
// POST /api/v1/tasks accept it; bytes that are not JSON go to context_base64.
type taskLine struct {
	ID            int64           `json:"id"`
	Namespace     string          `json:"namespace"`
	TaskName      string          `json:"task_name"`
	Context       json.RawMessage `json:"context,omitempty"`
	ContextBase64 []byte          `json:"context_base64,omitempty"`
}

func newTaskLine(t task.ReadyTask) taskLine {
	line := taskLine{ID: t.ID, Namespace: t.Namespace, TaskName: t.TaskName}
	switch {
	case len(t.Context) == 0:
	case json.Valid(t.Context):
		line.Context = json.RawMessage(t.Context)
	default:
		line.ContextBase64 = t.Context
	}
	return line
}
