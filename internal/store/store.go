// Package store holds the PostgreSQL access code: GraphCacheStore keys
// generated graphs by transcript hash, GalleryStore keeps saved maps and
// QuizStore counts quiz attempts per node.
//
// Change notifications come from triggers in the schema, so a store only
// writes rows and never publishes events itself.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/mindmap/internal/dbpool"
)

// queryTimeout bounds every statement a store issues.
const queryTimeout = 30 * time.Second

// Base is embedded by every store.
type Base struct {
	Pool *dbpool.Pool
	Log  *logrus.Logger
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}

func (b *Base) beginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := b.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	return tx, nil
}
