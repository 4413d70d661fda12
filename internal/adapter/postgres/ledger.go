package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LedgerRepo keeps the balances on the drivers row and the entries in
// ledger_transactions. Balance changes are single conditional statements,
// so concurrent writers cannot overdraw.
type LedgerRepo struct {
	db *pgxpool.Pool
}

func NewLedgerRepo(db *pgxpool.Pool) *LedgerRepo {
	return &LedgerRepo{db: db}
}

func (r *LedgerRepo) Credit(ctx context.Context, driverID uuid.UUID, tx models.Transaction) (bool, error) {
	const op = "LedgerRepo.Credit"
	q := TxorDB(ctx, r.db)

	if err := exists(ctx, q, `SELECT EXISTS(SELECT 1 FROM drivers WHERE id = $1)`, driverID, types.ErrDriverNotFound); err != nil {
		return false, err
	}

	insert := `
		INSERT INTO ledger_transactions (id, driver_id, ride_id, amount, type, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (ride_id) WHERE type = 'EARNING' DO NOTHING`

	tag, err := q.Exec(ctx, insert, tx.ID, driverID, tx.RideID, tx.Amount, tx.Type, tx.Status, tx.Timestamp)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	update := `
		UPDATE drivers
		SET total_earnings = total_earnings + $2,
			available_balance = available_balance + $2
		WHERE id = $1`
	if _, err := q.Exec(ctx, update, driverID, tx.Amount); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

func (r *LedgerRepo) Reserve(ctx context.Context, driverID uuid.UUID, amount float64) error {
	const op = "LedgerRepo.Reserve"
	q := TxorDB(ctx, r.db)

	query := `
		UPDATE drivers
		SET available_balance = available_balance - $2
		WHERE id = $1 AND available_balance >= $2`

	tag, err := q.Exec(ctx, query, driverID, amount)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if err := exists(ctx, q, `SELECT EXISTS(SELECT 1 FROM drivers WHERE id = $1)`, driverID, types.ErrDriverNotFound); err != nil {
		return err
	}
	return types.ErrInsufficientFunds
}

func (r *LedgerRepo) CreatePayout(ctx context.Context, payout *models.Payout, tx models.Transaction) error {
	const op = "LedgerRepo.CreatePayout"
	q := TxorDB(ctx, r.db)

	if _, err := q.Exec(ctx, `
		INSERT INTO payouts (id, driver_id, amount, email, status, requested_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		payout.ID, payout.DriverID, payout.Amount, payout.Email, payout.Status, payout.RequestedAt,
	); err != nil {
		return fmt.Errorf("%s: payout: %w", op, err)
	}

	if _, err := q.Exec(ctx, `
		INSERT INTO ledger_transactions (id, driver_id, payout_id, amount, type, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		tx.ID, payout.DriverID, tx.PayoutID, tx.Amount, tx.Type, tx.Status, tx.Timestamp,
	); err != nil {
		return fmt.Errorf("%s: transaction: %w", op, err)
	}
	return nil
}

func (r *LedgerRepo) MarkPayoutPaid(ctx context.Context, payoutID uuid.UUID, paidAt time.Time) (*models.Payout, error) {
	const op = "LedgerRepo.MarkPayoutPaid"
	q := TxorDB(ctx, r.db)

	query := `
		UPDATE payouts
		SET status = $2, paid_at = $3
		WHERE id = $1 AND status = $4
		RETURNING ` + payoutColumns

	p, err := scanPayout(q.QueryRow(ctx, query, payoutID, types.PayoutPaid, paidAt, types.PayoutAwaiting))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := exists(ctx, q, `SELECT EXISTS(SELECT 1 FROM payouts WHERE id = $1)`, payoutID, types.ErrPayoutNotFound); err != nil {
			return nil, err
		}
		return nil, types.ErrPayoutAlreadyPaid
	}

	if _, err := q.Exec(ctx, `UPDATE ledger_transactions SET status = $2 WHERE payout_id = $1`,
		payoutID, types.TransactionCompleted); err != nil {
		return nil, fmt.Errorf("%s: transaction: %w", op, err)
	}
	return p, nil
}

func (r *LedgerRepo) GetLedger(ctx context.Context, driverID uuid.UUID) (*models.Ledger, error) {
	const op = "LedgerRepo.GetLedger"
	q := TxorDB(ctx, r.db)

	l := &models.Ledger{DriverID: driverID}
	err := q.QueryRow(ctx, `SELECT total_earnings, available_balance FROM drivers WHERE id = $1`, driverID).
		Scan(&l.TotalEarnings, &l.AvailableBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrDriverNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := q.Query(ctx, `
		SELECT id, ride_id, payout_id, amount, type, status, created_at
		FROM ledger_transactions
		WHERE driver_id = $1
		ORDER BY created_at, id`, driverID)
	if err != nil {
		return nil, fmt.Errorf("%s: transactions: %w", op, err)
	}
	defer rows.Close()

	l.Transactions = make([]models.Transaction, 0)
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.RideID, &t.PayoutID, &t.Amount, &t.Type, &t.Status, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		l.Transactions = append(l.Transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return l, nil
}

const payoutColumns = `id, driver_id, amount, email, status, requested_at, paid_at`

func scanPayout(row pgx.Row) (*models.Payout, error) {
	var p models.Payout
	if err := row.Scan(&p.ID, &p.DriverID, &p.Amount, &p.Email, &p.Status, &p.RequestedAt, &p.PaidAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *LedgerRepo) GetPayout(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error) {
	const op = "LedgerRepo.GetPayout"

	p, err := scanPayout(TxorDB(ctx, r.db).QueryRow(ctx, `SELECT `+payoutColumns+` FROM payouts WHERE id = $1`, payoutID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrPayoutNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// ListPayouts returns a page of matching payouts, newest first, and the total match count.
func (r *LedgerRepo) ListPayouts(ctx context.Context, f models.PayoutFilter) ([]*models.Payout, int, error) {
	const op = "LedgerRepo.ListPayouts"

	var (
		conds []string
		args  []any
	)
	if f.DriverID != nil {
		args = append(args, *f.DriverID)
		conds = append(conds, fmt.Sprintf("driver_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, f.Limit(), f.Offset())

	query := fmt.Sprintf(`
		SELECT count(*) OVER(), %s
		FROM payouts
		%s
		ORDER BY requested_at DESC, id
		LIMIT $%d OFFSET $%d`, payoutColumns, where, len(args)-1, len(args))

	rows, err := TxorDB(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	total := 0
	payouts := make([]*models.Payout, 0)
	for rows.Next() {
		var p models.Payout
		if err := rows.Scan(&total, &p.ID, &p.DriverID, &p.Amount, &p.Email, &p.Status, &p.RequestedAt, &p.PaidAt); err != nil {
			return nil, 0, fmt.Errorf("%s: scan: %w", op, err)
		}
		payouts = append(payouts, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return payouts, total, nil
}
