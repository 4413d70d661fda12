package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Temutjin2k/fleet-ledger/pkg/metrics"
	"github.com/Temutjin2k/fleet-ledger/pkg/trm"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Querier interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
}

// TxorDB returns the transaction carried by ctx, or the pool when there is none.
// Every statement is timed into the database metrics.
func TxorDB(ctx context.Context, db *pgxpool.Pool) Querier {
	tx, ok := ctx.Value(trm.TxKey).(pgx.Tx)
	if !ok {
		return observed{db}
	}
	return observed{tx}
}

type observed struct {
	q Querier
}

func (o observed) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	start := time.Now()
	tag, err := o.q.Exec(ctx, query, args...)
	metrics.RecordDatabaseQuery(verb(query), err, time.Since(start))
	return tag, err
}

func (o observed) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	start := time.Now()
	rows, err := o.q.Query(ctx, query, args...)
	metrics.RecordDatabaseQuery(verb(query), err, time.Since(start))
	return rows, err
}

func (o observed) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	return observedRow{row: o.q.QueryRow(ctx, query, args...), op: verb(query), start: time.Now()}
}

type observedRow struct {
	row   pgx.Row
	op    string
	start time.Time
}

func (r observedRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	recorded := err
	if errors.Is(err, pgx.ErrNoRows) {
		recorded = nil
	}
	metrics.RecordDatabaseQuery(r.op, recorded, time.Since(r.start))
	return err
}

// verb labels a statement by its leading keyword (SELECT, INSERT, ...).
func verb(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "UNKNOWN"
	}
	return strings.ToUpper(fields[0])
}
