package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/callsheet/callsheet/pkg/cmd"
	"github.com/callsheet/callsheet/pkg/eventlog"
	"github.com/callsheet/callsheet/pkg/executor"
	"github.com/callsheet/callsheet/pkg/log"
	"github.com/callsheet/callsheet/pkg/orchestrator"
	"github.com/callsheet/callsheet/pkg/otelhelper"
	"go.opentelemetry.io/otel/trace"
)

const defaultPort = 8000

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "callsheet-api",
		Usage:                 "Analyze film scripts for production planning",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Checkpoint store URL (memory://, file://<dir>, redis://..., postgres://...)",
				Value:   "file://./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OTLP trace export",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Callsheet API")

			registry, err := cmd.NewRegistry(logger)
			if err != nil {
				return err
			}

			store, err := cmd.NewCheckpointStore(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := store.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close checkpoint store", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			err = eventlog.Register(ctx, eventBus, logger)
			if err != nil {
				return err
			}

			var tracer trace.Tracer

			if command.Bool("tracing") {
				tracer, err = otelhelper.NewTracer(ctx, "callsheet-api")
				if err != nil {
					return err
				}
			}

			exec := executor.NewExecutor(logger, eventBus, executor.Config{})
			orch := orchestrator.NewOrchestrator(logger, store, registry, exec, eventBus, tracer, orchestrator.Config{})

			api := NewAPI(logger, orch, store, registry)

			err = api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
