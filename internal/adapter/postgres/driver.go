package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/Temutjin2k/fleet-ledger/pkg/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DriverRepo struct {
	db *pgxpool.Pool
}

func NewDriverRepo(db *pgxpool.Pool) *DriverRepo {
	return &DriverRepo{
		db: db,
	}
}

const driverColumns = `id, name, email, phone, vehicle, is_online, approved, base_fee, per_km_rate, created_at, updated_at`

func scanDriver(row pgx.Row) (*models.Driver, error) {
	var d models.Driver
	err := row.Scan(&d.ID, &d.Name, &d.Email, &d.Phone, &d.Vehicle, &d.IsOnline, &d.Approved,
		&d.Pricing.BaseFee, &d.Pricing.PerKmRate, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.CompletedRides = []uuid.UUID{}
	return &d, nil
}

// Create inserts the driver; the ledger lives on the same row and starts at zero.
func (r *DriverRepo) Create(ctx context.Context, driver *models.Driver) error {
	const op = "DriverRepo.Create"
	query := `
		INSERT INTO drivers (id, name, email, phone, vehicle, is_online, approved, base_fee, per_km_rate, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	if _, err := TxorDB(ctx, r.db).Exec(ctx, query,
		driver.ID,
		driver.Name,
		driver.Email,
		driver.Phone,
		driver.Vehicle,
		driver.IsOnline,
		driver.Approved,
		driver.Pricing.BaseFee,
		driver.Pricing.PerKmRate,
		driver.CreatedAt,
		driver.UpdatedAt,
	); err != nil {
		if postgres.IsUniqueViolation(err, "drivers_pkey") {
			return types.ErrDriverRegistered
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *DriverRepo) Get(ctx context.Context, id uuid.UUID) (*models.Driver, error) {
	const op = "DriverRepo.Get"
	q := TxorDB(ctx, r.db)

	d, err := scanDriver(q.QueryRow(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrDriverNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	d.CompletedRides, err = completedRides(ctx, q,
		`SELECT ride_id FROM driver_completed_rides WHERE driver_id = $1 ORDER BY completed_at`, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return d, nil
}

func (r *DriverRepo) UpdatePricing(ctx context.Context, id uuid.UUID, p models.Pricing) (*models.Driver, error) {
	return r.update(ctx, "DriverRepo.UpdatePricing",
		`UPDATE drivers SET base_fee = $2, per_km_rate = $3, updated_at = now() WHERE id = $1`,
		id, p.BaseFee, p.PerKmRate)
}

func (r *DriverRepo) SetOnline(ctx context.Context, id uuid.UUID, online bool) (*models.Driver, error) {
	return r.update(ctx, "DriverRepo.SetOnline",
		`UPDATE drivers SET is_online = $2, updated_at = now() WHERE id = $1`,
		id, online)
}

func (r *DriverRepo) update(ctx context.Context, op, query string, id uuid.UUID, args ...any) (*models.Driver, error) {
	tag, err := TxorDB(ctx, r.db).Exec(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, types.ErrDriverNotFound
	}
	return r.Get(ctx, id)
}

func (r *DriverRepo) SetApproval(ctx context.Context, id uuid.UUID, approved bool) (*models.Driver, error) {
	return r.update(ctx, "DriverRepo.SetApproval",
		`UPDATE drivers SET approved = $2, updated_at = now() WHERE id = $1`,
		id, approved)
}

func (r *DriverRepo) ListOnline(ctx context.Context) ([]*models.Driver, error) {
	return r.list(ctx, "DriverRepo.ListOnline", `SELECT `+driverColumns+` FROM drivers WHERE is_online ORDER BY name`)
}

// List returns every driver, oldest registration first.
func (r *DriverRepo) List(ctx context.Context) ([]*models.Driver, error) {
	return r.list(ctx, "DriverRepo.List", `SELECT `+driverColumns+` FROM drivers ORDER BY created_at, id`)
}

func (r *DriverRepo) list(ctx context.Context, op, query string) ([]*models.Driver, error) {
	rows, err := TxorDB(ctx, r.db).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	drivers := make([]*models.Driver, 0)
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		drivers = append(drivers, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return drivers, nil
}

// AddCompletedRide is idempotent. The insert selects from drivers instead of
// relying on the foreign key so a missing driver does not abort the transaction.
func (r *DriverRepo) AddCompletedRide(ctx context.Context, driverID, rideID uuid.UUID) error {
	const op = "DriverRepo.AddCompletedRide"
	query := `
		INSERT INTO driver_completed_rides (driver_id, ride_id)
		SELECT id, $2 FROM drivers WHERE id = $1
		ON CONFLICT (driver_id, ride_id) DO NOTHING`

	q := TxorDB(ctx, r.db)
	tag, err := q.Exec(ctx, query, driverID, rideID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	return exists(ctx, q, `SELECT EXISTS(SELECT 1 FROM drivers WHERE id = $1)`, driverID, types.ErrDriverNotFound)
}

type RiderRepo struct {
	db *pgxpool.Pool
}

func NewRiderRepo(db *pgxpool.Pool) *RiderRepo {
	return &RiderRepo{db: db}
}

func (r *RiderRepo) Create(ctx context.Context, rider *models.Rider) error {
	const op = "RiderRepo.Create"
	query := `
		INSERT INTO riders (id, name, email, phone, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := TxorDB(ctx, r.db).Exec(ctx, query, rider.ID, rider.Name, rider.Email, rider.Phone, rider.CreatedAt); err != nil {
		if postgres.IsUniqueViolation(err, "riders_pkey") {
			return types.ErrRiderRegistered
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *RiderRepo) Get(ctx context.Context, id uuid.UUID) (*models.Rider, error) {
	const op = "RiderRepo.Get"
	q := TxorDB(ctx, r.db)

	var rider models.Rider
	err := q.QueryRow(ctx, `SELECT id, name, email, phone, created_at FROM riders WHERE id = $1`, id).
		Scan(&rider.ID, &rider.Name, &rider.Email, &rider.Phone, &rider.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrRiderNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rider.CompletedRides, err = completedRides(ctx, q,
		`SELECT ride_id FROM rider_completed_rides WHERE rider_id = $1 ORDER BY completed_at`, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &rider, nil
}

// AddCompletedRide is idempotent.
func (r *RiderRepo) AddCompletedRide(ctx context.Context, riderID, rideID uuid.UUID) error {
	const op = "RiderRepo.AddCompletedRide"
	query := `
		INSERT INTO rider_completed_rides (rider_id, ride_id)
		SELECT id, $2 FROM riders WHERE id = $1
		ON CONFLICT (rider_id, ride_id) DO NOTHING`

	q := TxorDB(ctx, r.db)
	tag, err := q.Exec(ctx, query, riderID, rideID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	return exists(ctx, q, `SELECT EXISTS(SELECT 1 FROM riders WHERE id = $1)`, riderID, types.ErrRiderNotFound)
}

// exists returns notFound when the EXISTS query reports no row.
func exists(ctx context.Context, q Querier, query string, id uuid.UUID, notFound error) error {
	var ok bool
	if err := q.QueryRow(ctx, query, id).Scan(&ok); err != nil {
		return err
	}
	if !ok {
		return notFound
	}
	return nil
}

func completedRides(ctx context.Context, q Querier, query string, ownerID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := q.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type SettingsRepo struct {
	db *pgxpool.Pool
}

func NewSettingsRepo(db *pgxpool.Pool) *SettingsRepo {
	return &SettingsRepo{db: db}
}

func (r *SettingsRepo) Get(ctx context.Context) (models.Settings, error) {
	const op = "SettingsRepo.Get"

	var s models.Settings
	err := TxorDB(ctx, r.db).QueryRow(ctx,
		`SELECT maintenance_mode, location_frequency, updated_at FROM settings WHERE id = 1`).
		Scan(&s.MaintenanceMode, &s.LocationFrequency, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.DefaultSettings(), nil
		}
		return models.Settings{}, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

func (r *SettingsRepo) Save(ctx context.Context, s models.Settings) error {
	const op = "SettingsRepo.Save"
	query := `
		INSERT INTO settings (id, maintenance_mode, location_frequency, updated_at)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET maintenance_mode = EXCLUDED.maintenance_mode,
			location_frequency = EXCLUDED.location_frequency,
			updated_at = EXCLUDED.updated_at`

	if _, err := TxorDB(ctx, r.db).Exec(ctx, query, s.MaintenanceMode, s.LocationFrequency, s.UpdatedAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
