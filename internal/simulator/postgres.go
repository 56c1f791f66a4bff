package simulator

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/lib/pq"

	"github.com/example/ride-booking/internal/errs"
	"github.com/example/ride-booking/internal/models"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (p *PostgresStore) Save(ctx context.Context, r models.Ride) error {
	var driverName, driverCar sql.NullString
	var driverLat, driverLon sql.NullFloat64
	if r.Driver != nil {
		driverName = sql.NullString{String: r.Driver.Name, Valid: true}
		driverCar = sql.NullString{String: r.Driver.CarNumber, Valid: true}
		driverLat = sql.NullFloat64{Float64: r.Driver.Lat, Valid: true}
		driverLon = sql.NullFloat64{Float64: r.Driver.Lon, Valid: true}
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO rides(
			id, user_id, pickup_label, pickup_lat, pickup_lon,
			dropoff_label, dropoff_lat, dropoff_lon,
			distance_km, car_type, price, status, payment_ref,
			driver_name, driver_car, driver_lat, driver_lon, updated_at
		) VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		ON CONFLICT (id) DO UPDATE SET
			status=EXCLUDED.status,
			driver_name=EXCLUDED.driver_name,
			driver_car=EXCLUDED.driver_car,
			driver_lat=EXCLUDED.driver_lat,
			driver_lon=EXCLUDED.driver_lon,
			updated_at=EXCLUDED.updated_at`,
		r.ID, r.UserID, r.Pickup.Label, r.Pickup.Lat, r.Pickup.Lon,
		r.Dropoff.Label, r.Dropoff.Lat, r.Dropoff.Lon,
		r.DistanceKm, r.CarType, r.Price, r.Status, r.PaymentRef,
		driverName, driverCar, driverLat, driverLon, time.Now())
	return err
}

func (p *PostgresStore) Get(ctx context.Context, id string) (models.Ride, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, user_id, pickup_label, pickup_lat, pickup_lon,
		       dropoff_label, dropoff_lat, dropoff_lon,
		       distance_km, car_type, price, status, payment_ref,
		       driver_name, driver_car, driver_lat, driver_lon
		FROM rides WHERE id=$1`, id)
	r, err := scanRide(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Ride{}, errs.ErrNotFound
	}
	return r, err
}

func (p *PostgresStore) ListByUser(ctx context.Context, userID string) ([]models.Ride, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, user_id, pickup_label, pickup_lat, pickup_lon,
		       dropoff_label, dropoff_lat, dropoff_lon,
		       distance_km, car_type, price, status, payment_ref,
		       driver_name, driver_car, driver_lat, driver_lon
		FROM rides WHERE user_id=$1 ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Ride
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row rowScanner) (models.Ride, error) {
	var r models.Ride
	var paymentRef sql.NullString
	var driverName, driverCar sql.NullString
	var driverLat, driverLon sql.NullFloat64
	err := row.Scan(
		&r.ID, &r.UserID, &r.Pickup.Label, &r.Pickup.Lat, &r.Pickup.Lon,
		&r.Dropoff.Label, &r.Dropoff.Lat, &r.Dropoff.Lon,
		&r.DistanceKm, &r.CarType, &r.Price, &r.Status, &paymentRef,
		&driverName, &driverCar, &driverLat, &driverLon)
	if err != nil {
		return models.Ride{}, err
	}
	r.PaymentRef = paymentRef.String
	if driverName.Valid {
		r.Driver = &models.Driver{
			Name:      driverName.String,
			CarNumber: driverCar.String,
			Lat:       driverLat.Float64,
			Lon:       driverLon.Float64,
		}
	}
	return r, nil
}
