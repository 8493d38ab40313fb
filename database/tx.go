// Package database: transaction helper.
//
// WithTx runs several statements as one unit. Without a transaction every
// statement commits on its own, so a failure halfway through MarkAllRead
// would leave some rows updated and others not. Inside WithTx:
//   - fn returns nil: COMMIT
//   - fn returns an error: ROLLBACK, and the error is returned
//   - fn panics: ROLLBACK, then the panic continues up the stack
//
// Usage:
//
//	err := database.WithTx(ctx, db.Conn, func(tx *sqlx.Tx) error {
//	    if _, err := tx.ExecContext(ctx, "UPDATE notifications ...", ...); err != nil {
//	        return err // ROLLBACK
//	    }
//	    return nil // COMMIT
//	})
//
// Repositories take a Querier, which both *sqlx.DB and *sqlx.Tx satisfy,
// so the same query code runs inside or outside a transaction.
package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Querier is satisfied by both *sqlx.DB and *sqlx.Tx, so repository code
// can run inside or outside a transaction.
type Querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// WithTx runs fn in a transaction: commit when fn returns nil, rollback on
// an error or a panic (which is re-raised).
func WithTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// The deferred block decides between commit and rollback from the named
	// err result, after fn has returned.
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}

		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
			}
			return
		}

		if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		}
	}()

	err = fn(tx)
	return
}
