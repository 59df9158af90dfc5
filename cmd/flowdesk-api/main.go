package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/flowdeskhq/flowdesk/pkg/actions/backoffice"
	"github.com/flowdeskhq/flowdesk/pkg/advisor"
	"github.com/flowdeskhq/flowdesk/pkg/cmd"
	"github.com/flowdeskhq/flowdesk/pkg/dispatcher"
	"github.com/flowdeskhq/flowdesk/pkg/execution"
	"github.com/flowdeskhq/flowdesk/pkg/log"
	"github.com/flowdeskhq/flowdesk/pkg/metrics"
	"github.com/flowdeskhq/flowdesk/pkg/otelhelper"
	"github.com/flowdeskhq/flowdesk/pkg/registry"
)

const defaultPort = 9091

func main() {
	command := &cli.Command{
		Name:                  "flowdesk-api",
		Usage:                 "Create, manage and execute trigger/action workflows",
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
				Name:    "redis-url",
				Usage:   "Redis URL for cross-process workflow locks",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "advisor-url",
				Usage:   "Base URL of the advice service, built-in heuristics when empty",
				Sources: cli.EnvVars("ADVISOR_URL"),
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

			logger := log.WithModule("api")
			logger.InfoContext(ctx, "Initializing Flowdesk API")

			if command.Bool("tracing") {
				_, err := otelhelper.NewTracer(ctx, "flowdesk-api")
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

			var adv advisor.Advisor = advisor.NewHeuristic()
			if url := command.String("advisor-url"); url != "" {
				adv = advisor.NewHTTPAdvisor(url)
			}

			api := NewAPI(logger, persistence, reg, engine, adv)

			return api.Start(command.Int("port"))
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
