// Package main provides the Flowdesk queue worker: it pops execution requests
// from Redis and runs the named workflows.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/flowdeskhq/flowdesk/pkg/actions/backoffice"
	"github.com/flowdeskhq/flowdesk/pkg/advisor"
	"github.com/flowdeskhq/flowdesk/pkg/cmd"
	"github.com/flowdeskhq/flowdesk/pkg/dispatcher"
	"github.com/flowdeskhq/flowdesk/pkg/execution"
	"github.com/flowdeskhq/flowdesk/pkg/log"
	"github.com/flowdeskhq/flowdesk/pkg/metrics"
	"github.com/flowdeskhq/flowdesk/pkg/otelhelper"
	"github.com/flowdeskhq/flowdesk/pkg/receivers/queue"
	"github.com/flowdeskhq/flowdesk/pkg/registry"
	"github.com/flowdeskhq/flowdesk/pkg/services"
)

func main() {
	command := &cli.Command{
		Name:                  "flowdesk-worker",
		Usage:                 "Execute queued workflow runs",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence (mongodb:// or a directory path)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "redis-addr",
				Usage:   "Redis address to consume execution requests from",
				Value:   "localhost:6379",
				Sources: cli.EnvVars("REDIS_ADDR"),
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Redis password",
				Sources: cli.EnvVars("REDIS_PASSWORD"),
			},
			&cli.StringFlag{
				Name:    "redis-db",
				Usage:   "Redis database number",
				Sources: cli.EnvVars("REDIS_DB"),
			},
			&cli.StringFlag{
				Name:    "queue",
				Usage:   "Redis list holding execution requests",
				Value:   queue.DefaultQueue,
				Sources: cli.EnvVars("EXECUTION_QUEUE"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for cross-process workflow locks",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "report-dir",
				Usage:   "Directory generate_report actions write to",
				Value:   "./reports",
				Sources: cli.EnvVars("REPORT_DIR"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OTLP trace export",
				Sources: cli.EnvVars("OTEL_ENABLED"),
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

			logger := log.WithModule("worker")
			logger.InfoContext(ctx, "Initializing Flowdesk worker")

			if command.Bool("tracing") {
				_, err := otelhelper.NewTracer(ctx, "flowdesk-worker")
				if err != nil {
					return err
				}
			}

			persistence, err := cmd.NewPersistence(ctx, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), logger)
			if err != nil {
				return err
			}

			defer func() {
				err := eventBus.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			locker, err := cmd.NewLocker(command.String("redis-url"))
			if err != nil {
				return err
			}

			reg := registry.NewRegistry(logger)
			reg.RegisterDefaultHandlers(eventBus, backoffice.NewLoggingClient(logger), command.String("report-dir"), logger)

			engine := execution.NewEngine(
				dispatcher.NewDispatcher(reg, logger),
				metrics.NewAggregator(persistence.WorkflowRepository(), locker, logger),
				eventBus,
				logger,
			)

			workflowService := services.NewWorkflow(persistence, engine, advisor.NewHeuristic(), logger)

			receiver, err := queue.NewReceiver(queue.Config{
				Addr:     command.String("redis-addr"),
				Password: command.String("redis-password"),
				DB:       command.String("redis-db"),
				Queue:    command.String("queue"),
			}, func(ctx context.Context, req queue.Request) error {
				_, err := workflowService.Execute(ctx, req.OwnerID, req.WorkflowID, req.TriggerData)

				return err
			}, logger)
			if err != nil {
				return err
			}

			runCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			err = NewNotifier(eventBus, logger).Start(runCtx)
			if err != nil {
				return err
			}

			err = receiver.Start(runCtx)
			if err != nil {
				return err
			}

			<-runCtx.Done()

			return receiver.Stop(context.WithoutCancel(runCtx))
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
