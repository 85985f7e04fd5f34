// Package repository provides the data access layer for connections,
// upload links, and notification configuration.
package repository

import (
	"context"
	"database/sql"
)

// Querier abstracts over *db.DB and *sql.Tx so repositories can run inside
// or outside an explicit transaction.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
