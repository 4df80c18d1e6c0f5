// Package main provides the Callsheet command line interface for running
// script analyses locally.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	cli "github.com/urfave/cli/v3"

	"github.com/callsheet/callsheet/pkg/cmd"
	"github.com/callsheet/callsheet/pkg/executor"
	"github.com/callsheet/callsheet/pkg/ingest"
	"github.com/callsheet/callsheet/pkg/log"
	"github.com/callsheet/callsheet/pkg/models"
	"github.com/callsheet/callsheet/pkg/orchestrator"
	"github.com/callsheet/callsheet/pkg/transform"
)

func main() {
	command := &cli.Command{
		Name:                  "callsheet",
		Usage:                 "Run film script analyses from the terminal",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Checkpoint store URL (memory://, file://<dir>, redis://..., postgres://...)",
				Value:   "file://./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			analyzeCommand(),
			statusCommand(),
			feedbackCommand(),
			resumeCommand(),
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newOrchestrator(ctx context.Context, command *cli.Command) (*orchestrator.Orchestrator, func(), error) {
	log.Setup(command.String("log-level"))

	logger := log.WithModule("cli")

	registry, err := cmd.NewRegistry(logger)
	if err != nil {
		return nil, nil, err
	}

	store, err := cmd.NewCheckpointStore(ctx, logger, command.String("database-url"))
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := store.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close checkpoint store", "error", err)
		}
	}

	exec := executor.NewExecutor(logger, nil, executor.Config{})
	orch := orchestrator.NewOrchestrator(logger, store, registry, exec, nil, nil, orchestrator.Config{})

	return orch, cleanup, nil
}

func printResponse(state *models.State) error {
	data, err := json.MarshalIndent(transform.FromState(state), "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(data))

	return nil
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Aliases:   []string{"a"},
		Usage:     "Analyze a script from a file, or stdin when no file is given",
		ArgsUsage: "[script-file]",
		Action: func(ctx context.Context, command *cli.Command) error {
			orch, cleanup, err := newOrchestrator(ctx, command)
			if err != nil {
				return err
			}
			defer cleanup()

			var content string

			if path := command.Args().First(); path != "" {
				content, err = ingest.ReadFile(path)
			} else {
				var body []byte

				body, err = io.ReadAll(os.Stdin)
				if err == nil {
					content = ingest.Normalize(string(body))
				}
			}

			if err != nil {
				return err
			}

			state, err := orch.Start(ctx, content)
			if err != nil {
				if state == nil {
					return err
				}

				// Failed runs still produce a printable state.
				fmt.Fprintln(os.Stderr, "warning:", err)
			}

			return printResponse(state)
		},
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:      "status",
		Aliases:   []string{"s"},
		Usage:     "Print the current state of an analysis thread",
		ArgsUsage: "<thread-id>",
		Action: func(ctx context.Context, command *cli.Command) error {
			threadID := command.Args().First()
			if threadID == "" {
				return fmt.Errorf("thread id is required")
			}

			orch, cleanup, err := newOrchestrator(ctx, command)
			if err != nil {
				return err
			}
			defer cleanup()

			state, err := orch.GetState(ctx, threadID)
			if err != nil {
				return err
			}

			return printResponse(state)
		},
	}
}

func feedbackCommand() *cli.Command {
	return &cli.Command{
		Name:      "feedback",
		Aliases:   []string{"f"},
		Usage:     "Apply reviewer feedback; no --revise flags approves the run",
		ArgsUsage: "<thread-id>",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "revise",
				Aliases: []string{"r"},
				Usage:   "Category to revise, as 'category=note' (repeatable)",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			threadID := command.Args().First()
			if threadID == "" {
				return fmt.Errorf("thread id is required")
			}

			feedback := make(map[models.Category]string)
			needsRevision := make(map[models.Category]bool)

			for _, entry := range command.StringSlice("revise") {
				name, note, _ := strings.Cut(entry, "=")

				category := models.Category(name)
				if !models.ValidCategory(category) {
					return fmt.Errorf("unknown analysis category: %s", name)
				}

				feedback[category] = note
				needsRevision[category] = true
			}

			orch, cleanup, err := newOrchestrator(ctx, command)
			if err != nil {
				return err
			}
			defer cleanup()

			state, err := orch.ApplyFeedback(ctx, threadID, feedback, needsRevision)
			if err != nil {
				return err
			}

			if state.Stage == models.StageExtraction {
				state, err = orch.Resume(ctx, threadID)
				if err != nil {
					fmt.Fprintln(os.Stderr, "warning:", err)
				}
			}

			return printResponse(state)
		},
	}
}

func resumeCommand() *cli.Command {
	return &cli.Command{
		Name:      "resume",
		Usage:     "Continue an interrupted analysis thread",
		ArgsUsage: "<thread-id>",
		Action: func(ctx context.Context, command *cli.Command) error {
			threadID := command.Args().First()
			if threadID == "" {
				return fmt.Errorf("thread id is required")
			}

			orch, cleanup, err := newOrchestrator(ctx, command)
			if err != nil {
				return err
			}
			defer cleanup()

			state, err := orch.Resume(ctx, threadID)
			if err != nil {
				fmt.Fprintln(os.Stderr, "warning:", err)
			}

			if state == nil {
				return err
			}

			return printResponse(state)
		},
	}
}
