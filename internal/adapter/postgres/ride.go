package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/Temutjin2k/fleet-ledger/pkg/postgres"
	"github.com/google/uuid"
)

type RideRepo struct {
	db *pgxpool.Pool
}

func NewRideRepo(db *pgxpool.Pool) *RideRepo {
	return &RideRepo{db: db}
}

const rideColumns = `
	id, rider_id, driver_id, status, cancellation_actor,
	start_lat, start_lng, start_address, end_lat, end_lng, end_address,
	distance_km, base_fare, distance_fare, tip_amount, total_amount,
	rider_lat, rider_lng, driver_lat, driver_lng,
	created_at, updated_at, matched_at, started_at, finished_at, cancelled_at`

func scanRide(row pgx.Row) (*models.Ride, error) {
	var (
		ride                 models.Ride
		riderLat, riderLng   *float64
		driverLat, driverLng *float64
	)
	err := row.Scan(
		&ride.ID, &ride.RiderID, &ride.DriverID, &ride.Status, &ride.CancellationActor,
		&ride.Start.Latitude, &ride.Start.Longitude, &ride.Start.Address,
		&ride.End.Latitude, &ride.End.Longitude, &ride.End.Address,
		&ride.DistanceKm, &ride.Fare.BaseFare, &ride.Fare.DistanceFare, &ride.Fare.TipAmount, &ride.Fare.TotalAmount,
		&riderLat, &riderLng, &driverLat, &driverLng,
		&ride.CreatedAt, &ride.UpdatedAt, &ride.MatchedAt, &ride.StartedAt, &ride.FinishedAt, &ride.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	ride.RiderPosition = position(riderLat, riderLng)
	ride.DriverPosition = position(driverLat, driverLng)
	return &ride, nil
}

func position(lat, lng *float64) *models.Location {
	if lat == nil || lng == nil {
		return nil
	}
	return &models.Location{Latitude: *lat, Longitude: *lng}
}

func (r *RideRepo) Create(ctx context.Context, ride *models.Ride) error {
	const op = "RideRepo.Create"
	q := TxorDB(ctx, r.db)

	query := `
		INSERT INTO rides (
			id, rider_id, driver_id, status, cancellation_actor,
			start_lat, start_lng, start_address, end_lat, end_lng, end_address,
			distance_km, base_fare, distance_fare, tip_amount, total_amount,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	_, err := q.Exec(ctx, query,
		ride.ID, ride.RiderID, ride.DriverID, ride.Status, ride.CancellationActor,
		ride.Start.Latitude, ride.Start.Longitude, ride.Start.Address,
		ride.End.Latitude, ride.End.Longitude, ride.End.Address,
		ride.DistanceKm, ride.Fare.BaseFare, ride.Fare.DistanceFare, ride.Fare.TipAmount, ride.Fare.TotalAmount,
		ride.CreatedAt, ride.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, "rides_pkey") {
			return fmt.Errorf("%s: %w: ride %s already exists", op, types.ErrConflict, ride.ID)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *RideRepo) Get(ctx context.Context, id uuid.UUID) (*models.Ride, error) {
	const op = "RideRepo.Get"
	q := TxorDB(ctx, r.db)

	ride, err := scanRide(q.QueryRow(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrRideNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ride, nil
}

// UpdateIfStatus writes the ride only while its stored status equals expected.
// Under concurrent writers the row lock serializes them and the losers see zero
// affected rows. Position columns are left alone.
func (r *RideRepo) UpdateIfStatus(ctx context.Context, ride *models.Ride, expected types.RideStatus) error {
	const op = "RideRepo.UpdateIfStatus"
	q := TxorDB(ctx, r.db)

	query := `
		UPDATE rides
		SET
			driver_id = $3,
			status = $4,
			cancellation_actor = $5,
			base_fare = $6,
			distance_fare = $7,
			tip_amount = $8,
			total_amount = $9,
			matched_at = $10,
			started_at = $11,
			finished_at = $12,
			cancelled_at = $13,
			updated_at = $14
		WHERE id = $1 AND status = $2`

	tag, err := q.Exec(ctx, query,
		ride.ID, expected,
		ride.DriverID, ride.Status, ride.CancellationActor,
		ride.Fare.BaseFare, ride.Fare.DistanceFare, ride.Fare.TipAmount, ride.Fare.TotalAmount,
		ride.MatchedAt, ride.StartedAt, ride.FinishedAt, ride.CancelledAt, ride.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	if err := exists(ctx, q, `SELECT EXISTS(SELECT 1 FROM rides WHERE id = $1)`, ride.ID, types.ErrRideNotFound); err != nil {
		return err
	}
	return types.ErrRideStateChanged
}

func (r *RideRepo) SetPosition(ctx context.Context, rideID uuid.UUID, party types.Party, loc models.Location) (*models.Ride, error) {
	const op = "RideRepo.SetPosition"
	q := TxorDB(ctx, r.db)

	var query string
	switch party {
	case types.PartyRider:
		query = `UPDATE rides SET rider_lat = $2, rider_lng = $3, updated_at = now() WHERE id = $1 RETURNING ` + rideColumns
	case types.PartyDriver:
		query = `UPDATE rides SET driver_lat = $2, driver_lng = $3, updated_at = now() WHERE id = $1 RETURNING ` + rideColumns
	default:
		return nil, fmt.Errorf("%w: unknown party %q", types.ErrValidation, party)
	}

	ride, err := scanRide(q.QueryRow(ctx, query, rideID, loc.Latitude, loc.Longitude))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrRideNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ride, nil
}

func (r *RideRepo) ListWithoutDriver(ctx context.Context) ([]*models.Ride, error) {
	return r.list(ctx, "RideRepo.ListWithoutDriver",
		`SELECT `+rideColumns+` FROM rides WHERE driver_id IS NULL AND status = $1 ORDER BY created_at`,
		types.RideProposed)
}

func (r *RideRepo) ListByDriver(ctx context.Context, driverID uuid.UUID) ([]*models.Ride, error) {
	return r.list(ctx, "RideRepo.ListByDriver",
		`SELECT `+rideColumns+` FROM rides WHERE driver_id = $1 ORDER BY created_at DESC`,
		driverID)
}

func (r *RideRepo) LatestByRider(ctx context.Context, riderID uuid.UUID) (*models.Ride, error) {
	const op = "RideRepo.LatestByRider"
	q := TxorDB(ctx, r.db)

	ride, err := scanRide(q.QueryRow(ctx,
		`SELECT `+rideColumns+` FROM rides WHERE rider_id = $1 ORDER BY created_at DESC LIMIT 1`, riderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrRideNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ride, nil
}

func (r *RideRepo) list(ctx context.Context, op, query string, args ...any) ([]*models.Ride, error) {
	q := TxorDB(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	rides := make([]*models.Ride, 0)
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		rides = append(rides, ride)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rides, nil
}
