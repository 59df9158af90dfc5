package queue

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopExecute(_ context.Context, _ Request) error { return nil }

func TestNewReceiver(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	tests := []struct {
		name          string
		config        Config
		expectError   bool
		errorMsg      string
		expectedQueue string
	}{
		{
			name: "valid_redis_config",
			config: Config{
				Addr:     "localhost:6379",
				Password: "",
				DB:       "0",
				Queue:    "test_queue",
			},
			expectedQueue: "test_queue",
		},
		{
			name:          "default_queue_name",
			config:        Config{Addr: "localhost:6379"},
			expectedQueue: DefaultQueue,
		},
		{
			name:          "default_address",
			config:        Config{Queue: "test_queue"},
			expectedQueue: "test_queue",
		},
		{
			name:        "invalid_db_value",
			config:      Config{Addr: "localhost:6379", DB: "not-a-number"},
			expectError: true,
			errorMsg:    "invalid db value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			receiver, err := NewReceiver(tt.config, noopExecute, logger)

			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.Nil(t, receiver)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, receiver)
				assert.Equal(t, tt.expectedQueue, receiver.queue)
			}
		})
	}
}
