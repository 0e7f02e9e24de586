package domaincfg

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"syncgate/internal/sync/models"
)

// PostgresStore persists domain configs in PostgreSQL. Transition tables are
// stored as jsonb: they are opaque to SQL and always read back whole.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed domain config store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the backing table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS sync_domain_configs (
			domain         text        PRIMARY KEY,
			policy         text        NOT NULL,
			default_status text        NOT NULL,
			transitions    jsonb       NOT NULL,
			updated_at     timestamptz NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("ensure sync_domain_configs schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, cfg *models.DomainConfig) error {
	transitions, err := json.Marshal(cfg.Transitions)
	if err != nil {
		return fmt.Errorf("encode transitions: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sync_domain_configs (domain, policy, default_status, transitions, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (domain) DO UPDATE
		    SET policy = EXCLUDED.policy,
		        default_status = EXCLUDED.default_status,
		        transitions = EXCLUDED.transitions,
		        updated_at = EXCLUDED.updated_at`,
		cfg.Domain, cfg.Policy, cfg.DefaultStatus, transitions, cfg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save domain config: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.DomainConfig, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT domain, policy, default_status, transitions, updated_at
		   FROM sync_domain_configs
		  ORDER BY domain`)
	if err != nil {
		return nil, fmt.Errorf("list domain configs: %w", err)
	}
	defer rows.Close()

	var out []*models.DomainConfig
	for rows.Next() {
		var cfg models.DomainConfig
		var transitions []byte
		if err := rows.Scan(&cfg.Domain, &cfg.Policy, &cfg.DefaultStatus, &transitions, &cfg.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan domain config: %w", err)
		}
		if err := json.Unmarshal(transitions, &cfg.Transitions); err != nil {
			return nil, fmt.Errorf("decode transitions for %q: %w", cfg.Domain, err)
		}
		out = append(out, &cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list domain configs: %w", err)
	}
	return out, nil
}
