package locations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver

	"github.com/agrowatch/pest-advisory-service/internal/domain"
)

// PostgresStore serves the village dataset from a `locations` table with the
// same columns the CSV backend requires.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore connects to Postgres and verifies the connection.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to location database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// locationRow mirrors the locations table.
type locationRow struct {
	District string  `db:"district"`
	Taluka   string  `db:"taluka"`
	Village  string  `db:"village"`
	Lat      float64 `db:"lat"`
	Lon      float64 `db:"lon"`
}

// Lookup resolves a village selection; comparisons are case-insensitive to
// match the CSV backend's behavior.
func (s *PostgresStore) Lookup(ctx context.Context, district, taluka, village string) (domain.Location, error) {
	const query = `
		SELECT district, taluka, village, lat, lon
		FROM locations
		WHERE lower(district) = lower(trim($1))
		  AND lower(taluka)   = lower(trim($2))
		  AND lower(village)  = lower(trim($3))
		LIMIT 1`

	var row locationRow
	err := s.db.GetContext(ctx, &row, query, district, taluka, village)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Location{}, &domain.NotFoundError{District: district, Taluka: taluka, Village: village}
	}
	if err != nil {
		return domain.Location{}, fmt.Errorf("query location: %w", err)
	}

	return domain.Location{
		District: row.District,
		Taluka:   row.Taluka,
		Village:  row.Village,
		Lat:      row.Lat,
		Lon:      row.Lon,
	}, nil
}

// Districts lists every district, sorted.
func (s *PostgresStore) Districts(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT district FROM locations ORDER BY district`

	var out []string
	if err := s.db.SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("query districts: %w", err)
	}
	return out, nil
}

// Talukas lists the talukas of a district, sorted.
func (s *PostgresStore) Talukas(ctx context.Context, district string) ([]string, error) {
	const query = `
		SELECT DISTINCT taluka FROM locations
		WHERE lower(district) = lower(trim($1))
		ORDER BY taluka`

	var out []string
	if err := s.db.SelectContext(ctx, &out, query, district); err != nil {
		return nil, fmt.Errorf("query talukas: %w", err)
	}
	return out, nil
}

// Villages lists the villages of a (district, taluka) pair, sorted.
func (s *PostgresStore) Villages(ctx context.Context, district, taluka string) ([]string, error) {
	const query = `
		SELECT DISTINCT village FROM locations
		WHERE lower(district) = lower(trim($1))
		  AND lower(taluka)   = lower(trim($2))
		ORDER BY village`

	var out []string
	if err := s.db.SelectContext(ctx, &out, query, district, taluka); err != nil {
		return nil, fmt.Errorf("query villages: %w", err)
	}
	return out, nil
}

// Close releases the database connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
