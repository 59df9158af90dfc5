// Package queue consumes execution requests from a Redis list and hands them
// to the execution engine.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// DefaultQueue is the list execution requests are popped from.
const DefaultQueue = "flowdesk:executions"

// Request is one queued execution order.
type Request struct {
	WorkflowID  string         `json:"workflow_id"`
	OwnerID     string         `json:"owner_id,omitempty"`
	TriggerData map[string]any `json:"trigger_data,omitempty"`
}

// ExecuteFunc runs the workflow named by the request.
type ExecuteFunc func(ctx context.Context, req Request) error

// Receiver pops execution requests from a Redis list. Malformed payloads are
// dropped with a log line; execution failures never stop the consumer.
type Receiver struct {
	queue   string
	client  redis.UniversalClient
	execute ExecuteFunc
	logger  *slog.Logger
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// Config describes the Redis connection and queue to consume.
type Config struct {
	Addr     string
	Password string
	DB       string
	Queue    string
}

func NewReceiver(config Config, execute ExecuteFunc, logger *slog.Logger) (*Receiver, error) {
	if config.Queue == "" {
		config.Queue = DefaultQueue
	}

	if config.Addr == "" {
		config.Addr = "localhost:6379"
	}

	db := 0

	if config.DB != "" {
		parsed, err := strconv.Atoi(config.DB)
		if err != nil {
			return nil, fmt.Errorf("invalid db value: %w", err)
		}

		db = parsed
	}

	return &Receiver{
		queue: config.Queue,
		client: redis.NewClient(&redis.Options{
			Addr:     config.Addr,
			Password: config.Password,
			DB:       db,
		}),
		execute: execute,
		stopCh:  make(chan struct{}),
		logger: logger.With(
			"module", "queue_receiver",
			"queue", config.Queue,
		),
	}, nil
}

// Start verifies the connection and begins consuming in the background.
func (r *Receiver) Start(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := r.client.Ping(pingCtx).Err()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	r.logger.InfoContext(ctx, "Starting queue receiver")

	r.wg.Add(1)

	go r.consume(ctx)

	return nil
}

func (r *Receiver) consume(ctx context.Context) {
	defer r.wg.Done()

	for {
		select {
		case <-r.stopCh:
			r.logger.InfoContext(ctx, "Queue receiver stopped")

			return
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "Context cancelled, stopping queue receiver")

			return
		default:
			err := r.processMessage(ctx)
			if err != nil {
				r.logger.ErrorContext(ctx, "Error processing message", "error", err)
				time.Sleep(1 * time.Second)
			}
		}
	}
}

func (r *Receiver) processMessage(ctx context.Context) error {
	result, err := r.client.BLPop(ctx, 1*time.Second, r.queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
			return nil
		}

		return fmt.Errorf("failed to pop message from queue: %w", err)
	}

	if len(result) < 2 {
		return nil
	}

	var req Request

	err = json.Unmarshal([]byte(result[1]), &req)
	if err != nil || req.WorkflowID == "" {
		r.logger.WarnContext(ctx, "Dropping malformed execution request", "payload", result[1])

		return nil
	}

	go func() {
		err := r.execute(ctx, req)
		if err != nil {
			r.logger.ErrorContext(ctx, "Queued execution failed",
				"workflow_id", req.WorkflowID,
				"error", err,
			)
		}
	}()

	return nil
}

// Stop halts consumption and closes the Redis connection.
func (r *Receiver) Stop(ctx context.Context) error {
	close(r.stopCh)
	r.wg.Wait()

	err := r.client.Close()
	if err != nil {
		r.logger.ErrorContext(ctx, "Error closing Redis client", "error", err)
	}

	return nil
}
