// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/flowdeskhq/flowdesk/pkg/persistence"
	"github.com/flowdeskhq/flowdesk/pkg/persistence/file"
	"github.com/flowdeskhq/flowdesk/pkg/persistence/mongodb"
)

// NewPersistence selects the persistence backend from the database URL.
// mongodb:// URLs get the MongoDB backend, anything else is treated as a
// filesystem root.
func NewPersistence(ctx context.Context, databaseURL string) (persistence.Persistence, error) {
	if strings.HasPrefix(databaseURL, "mongodb://") || strings.HasPrefix(databaseURL, "mongodb+srv://") {
		p, err := mongodb.NewPersistence(ctx, databaseURL, "flowdesk")
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}

		return p, nil
	}

	return file.NewPersistence(databaseURL), nil
}
