// Package services holds the business logic behind the HTTP handlers:
// registration and sessions in UserService, per-user todo lists in TodoService.
package services

import (
	"context"
	"time"
)

// defaultWriteTimeout bounds store writes that are detached from the request.
const defaultWriteTimeout = 5 * time.Second

// writeContext detaches a store write from request cancellation so a client
// disconnect cannot abort a mutation halfway.
func writeContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}
