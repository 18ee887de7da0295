package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// AppStore is the durable lookup/insert boundary for application
// identities.
type AppStore interface {
	// Find returns the id for a (username, app_name) pair, reporting
	// whether a row exists.
	Find(ctx context.Context, username, appName string) (int64, bool, error)

	// Create inserts a row for the pair and returns its id. Losing a
	// concurrent creation race returns the winner's id; the store
	// never holds two rows for one pair.
	Create(ctx context.Context, username, appName string) (int64, error)
}

// MetricStore is the durable lookup/insert boundary for metric
// identities.
type MetricStore interface {
	Find(ctx context.Context, appID int64, metric string) (int64, bool, error)
	Create(ctx context.Context, appID int64, metric string) (int64, error)
}

// SQLiteAppStore implements AppStore against the apps table.
type SQLiteAppStore struct {
	db *sql.DB
}

// NewAppStore creates a SQLite-backed application store.
func NewAppStore(db *sql.DB) *SQLiteAppStore {
	return &SQLiteAppStore{db: db}
}

// Find looks up an existing application row.
func (s *SQLiteAppStore) Find(ctx context.Context, username, appName string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM apps WHERE username = ? AND app_name = ?",
		username, appName,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%w: finding app: %w", ErrStoreUnavailable, err)
	}
	return id, true, nil
}

// Create inserts an application row with insert-or-fetch semantics.
//
// The UNIQUE constraint on (username, app_name) is the serialization
// point: a lost race turns the insert into a no-op and the winner's
// row is fetched instead.
func (s *SQLiteAppStore) Create(ctx context.Context, username, appName string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO apps (username, app_name) VALUES (?, ?) ON CONFLICT (username, app_name) DO NOTHING",
		username, appName,
	)
	if err != nil {
		return 0, fmt.Errorf("%w: creating app: %w", ErrStoreUnavailable, err)
	}

	rows, _ := res.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows > 0 {
		id, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("%w: reading app id: %w", ErrStoreUnavailable, err)
		}
		return id, nil
	}

	// Lost the race; fetch the winner's row. Rows are never deleted,
	// so it must exist.
	id, found, err := s.Find(ctx, username, appName)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("%w: app row missing after conflict", ErrStoreUnavailable)
	}
	return id, nil
}

// SQLiteMetricStore implements MetricStore against the metrics table.
type SQLiteMetricStore struct {
	db *sql.DB
}

// NewMetricStore creates a SQLite-backed metric store.
func NewMetricStore(db *sql.DB) *SQLiteMetricStore {
	return &SQLiteMetricStore{db: db}
}

// Find looks up an existing metric row.
func (s *SQLiteMetricStore) Find(ctx context.Context, appID int64, metric string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM metrics WHERE metric = ? AND app_id = ?",
		metric, appID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%w: finding metric: %w", ErrStoreUnavailable, err)
	}
	return id, true, nil
}

// Create inserts a metric row with insert-or-fetch semantics, mirroring
// SQLiteAppStore.Create.
func (s *SQLiteMetricStore) Create(ctx context.Context, appID int64, metric string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO metrics (metric, app_id) VALUES (?, ?) ON CONFLICT (metric, app_id) DO NOTHING",
		metric, appID,
	)
	if err != nil {
		return 0, fmt.Errorf("%w: creating metric: %w", ErrStoreUnavailable, err)
	}

	rows, _ := res.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows > 0 {
		id, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("%w: reading metric id: %w", ErrStoreUnavailable, err)
		}
		return id, nil
	}

	id, found, err := s.Find(ctx, appID, metric)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("%w: metric row missing after conflict", ErrStoreUnavailable)
	}
	return id, nil
}
