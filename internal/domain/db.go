package domain

import "context"

// Database defines lifecycle operations for the underlying database.
// The live instance is held in memory; Checkpoint is the only way state
// reaches durable storage.
type Database interface {
	Migrate(ctx context.Context) error
	Checkpoint(ctx context.Context, path string) error
	Close() error
}
