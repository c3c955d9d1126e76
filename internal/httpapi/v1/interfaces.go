package v1

import "context"

// ReadyChecker is implemented by persistence adapters to indicate readiness.
type ReadyChecker interface {
    Ready(ctx context.Context) error
}
