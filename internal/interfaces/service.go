package interfaces

import "context"

type ProductionConsumer interface {
	// Run reads production events until ctx is cancelled.
	Run(ctx context.Context) error
	Close() error
}
