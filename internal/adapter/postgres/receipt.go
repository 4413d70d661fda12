package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReceiptRepo struct {
	db *pgxpool.Pool
}

func NewReceiptRepo(db *pgxpool.Pool) *ReceiptRepo {
	return &ReceiptRepo{db: db}
}

const receiptColumns = `
	id, receipt_number, ride_id, rider_id, driver_id,
	base_fare, distance_fare, tip_amount, total_amount,
	distance_km, duration_minutes, pickup, dropoff, payment_method, currency, issued_at`

func scanReceipt(row pgx.Row) (*models.Receipt, error) {
	var rc models.Receipt
	err := row.Scan(
		&rc.ID, &rc.ReceiptNumber, &rc.RideID, &rc.RiderID, &rc.DriverID,
		&rc.Fare.BaseFare, &rc.Fare.DistanceFare, &rc.Fare.TipAmount, &rc.Fare.TotalAmount,
		&rc.DistanceKm, &rc.DurationMinutes, &rc.Pickup, &rc.Dropoff, &rc.PaymentMethod, &rc.Currency, &rc.IssuedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rc, nil
}

// Create inserts with ON CONFLICT DO NOTHING so a duplicate does not abort the
// surrounding transaction, then tells the two duplicate kinds apart.
func (r *ReceiptRepo) Create(ctx context.Context, rc *models.Receipt) error {
	const op = "ReceiptRepo.Create"
	q := TxorDB(ctx, r.db)

	query := `
		INSERT INTO receipts (` + receiptColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT DO NOTHING`

	tag, err := q.Exec(ctx, query,
		rc.ID, rc.ReceiptNumber, rc.RideID, rc.RiderID, rc.DriverID,
		rc.Fare.BaseFare, rc.Fare.DistanceFare, rc.Fare.TipAmount, rc.Fare.TotalAmount,
		rc.DistanceKm, rc.DurationMinutes, rc.Pickup, rc.Dropoff, rc.PaymentMethod, rc.Currency, rc.IssuedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	if err := exists(ctx, q, `SELECT EXISTS(SELECT 1 FROM receipts WHERE ride_id = $1)`, rc.RideID, types.ErrReceiptNumberTaken); err != nil {
		return err
	}
	return types.ErrReceiptExists
}

func (r *ReceiptRepo) Get(ctx context.Context, id uuid.UUID) (*models.Receipt, error) {
	return r.one(ctx, "ReceiptRepo.Get", `SELECT `+receiptColumns+` FROM receipts WHERE id = $1`, id)
}

func (r *ReceiptRepo) GetByRide(ctx context.Context, rideID uuid.UUID) (*models.Receipt, error) {
	return r.one(ctx, "ReceiptRepo.GetByRide", `SELECT `+receiptColumns+` FROM receipts WHERE ride_id = $1`, rideID)
}

func (r *ReceiptRepo) ListByRider(ctx context.Context, riderID uuid.UUID) ([]*models.Receipt, error) {
	return r.list(ctx, "ReceiptRepo.ListByRider",
		`SELECT `+receiptColumns+` FROM receipts WHERE rider_id = $1 ORDER BY issued_at DESC`, riderID)
}

func (r *ReceiptRepo) ListByDriver(ctx context.Context, driverID uuid.UUID) ([]*models.Receipt, error) {
	return r.list(ctx, "ReceiptRepo.ListByDriver",
		`SELECT `+receiptColumns+` FROM receipts WHERE driver_id = $1 ORDER BY issued_at DESC`, driverID)
}

func (r *ReceiptRepo) one(ctx context.Context, op, query string, id uuid.UUID) (*models.Receipt, error) {
	rc, err := scanReceipt(TxorDB(ctx, r.db).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrReceiptNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rc, nil
}

func (r *ReceiptRepo) list(ctx context.Context, op, query string, id uuid.UUID) ([]*models.Receipt, error) {
	rows, err := TxorDB(ctx, r.db).Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := make([]*models.Receipt, 0)
	for rows.Next() {
		rc, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}
