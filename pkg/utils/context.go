package utils

import (
	"context"
	"errors"
	"time"
)

// DefaultTimeout is the standard timeout for database operations
const DefaultTimeout = 5 * time.Second

// NotificationFetchBudget is the wall-clock budget for the notification-list
// fetch; after it elapses the cached result is substituted. This is the only
// path that carries a timeout of its own.
const NotificationFetchBudget = 3 * time.Second

// WithTimeout creates context with default timeout
func WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, DefaultTimeout)
}

// IsContextError checks if error is from context cancellation
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
