package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/taskbase/taskbase/internal/api"
	"github.com/taskbase/taskbase/internal/task"
)

func newPushCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "push <file.json|->",
		Short: "Insert or update tasks from a JSON file",
		Long:  `push reads {"tasks": [...]} in the same format as POST /api/v1/tasks and writes the batch in one round trip. Tasks for namespaces outside the configuration are skipped.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := readTasks(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, closeLog, err := setupLogger(cfg, true)
			if err != nil {
				return err
			}
			defer closeLog()

			be, err := connectProducer(cmd.Context(), cfg, cfg.Service.Namespaces, logger)
			if err != nil {
				return err
			}
			defer be.Close(logger)

			skipped := 0
			for _, t := range tasks {
				if !be.svc.Authorized(t.Namespace) {
					skipped++
				}
			}

			if err := be.svc.Push(cmd.Context(), tasks); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pushed %d tasks, skipped %d\n", len(tasks)-skipped, skipped)
			return nil
		},
	}
}

func readTasks(stdin io.Reader, path string) ([]task.PushTask, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open task file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var req api.PushTasksRequest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("failed to parse task file: %w", err)
	}
	if err := validator.New().Struct(req); err != nil {
		return nil, fmt.Errorf("invalid task file: %w", err)
	}

	tasks := make([]task.PushTask, len(req.Tasks))
	for i, in := range req.Tasks {
		tasks[i] = task.PushTask{
			ID:        in.ID,
			Namespace: in.Namespace,
			TaskName:  in.TaskName,
			Context:   []byte(in.Context),
			Status:    in.Status,
		}
	}
	return tasks, nil
}
