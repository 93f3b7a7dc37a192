package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"manganime/pkg/logger"
)

// Capabilities records what the connected schema supports. It is resolved by
// a single probe at startup and injected into the services that need it, so
// no per-call inspection of error payloads is ever required.
type Capabilities struct {
	// ThreadedComments is false when the comments table predates the
	// parent_comment_id column. Threaded listing then degrades to the flat
	// list with every comment treated as top-level.
	ThreadedComments bool
}

// DetectCapabilities probes the schema once. Probe failures degrade the
// capability rather than failing startup; an older schema must keep working.
func DetectCapabilities(ctx context.Context, pool *pgxpool.Pool) Capabilities {
	caps := Capabilities{}

	var exists bool
	err := pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_name = 'comments' AND column_name = 'parent_comment_id'
		)
	`).Scan(&exists)
	if err != nil {
		logger.Warnf("capability probe failed, threading disabled: %v", err)
		return caps
	}

	caps.ThreadedComments = exists
	if !exists {
		logger.Warn("comments.parent_comment_id missing, serving flat comment lists")
	}
	return caps
}
