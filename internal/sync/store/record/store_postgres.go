package record

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"syncgate/internal/sync/models"
)

// PostgresStore persists sync records in PostgreSQL over a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed record store.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the backing table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sync_records (
			domain      text        NOT NULL,
			record_id   text        NOT NULL,
			status      text        NOT NULL,
			version     bigint      NOT NULL DEFAULT 0,
			updated_at  timestamptz NOT NULL,
			PRIMARY KEY (domain, record_id)
		)`)
	if err != nil {
		return fmt.Errorf("ensure sync_records schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, domain, recordID string) (*models.Record, error) {
	var r models.Record
	err := s.pool.QueryRow(ctx,
		`SELECT domain, record_id, status, version, updated_at
		   FROM sync_records
		  WHERE domain = $1 AND record_id = $2`,
		domain, recordID,
	).Scan(&r.Domain, &r.RecordID, &r.Status, &r.Version, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sync record: %w", err)
	}
	return &r, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, record *models.Record) error {
	if record == nil {
		return fmt.Errorf("record is required")
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sync_records (domain, record_id, status, version, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (domain, record_id) DO UPDATE
		    SET status = EXCLUDED.status,
		        version = EXCLUDED.version,
		        updated_at = EXCLUDED.updated_at`,
		record.Domain, record.RecordID, record.Status, record.Version, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert sync record: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, domain string) ([]*models.Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT domain, record_id, status, version, updated_at
		   FROM sync_records
		  WHERE domain = $1
		  ORDER BY record_id`,
		domain,
	)
	if err != nil {
		return nil, fmt.Errorf("list sync records: %w", err)
	}
	defer rows.Close()

	var out []*models.Record
	for rows.Next() {
		var r models.Record
		if err := rows.Scan(&r.Domain, &r.RecordID, &r.Status, &r.Version, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan sync record: %w", err)
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sync records: %w", err)
	}
	return out, nil
}
