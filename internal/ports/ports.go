package ports

import "context"

// HealthChecker is used to probe the state stores.
type HealthChecker interface {
	Health(ctx context.Context) error
}
