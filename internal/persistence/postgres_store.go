package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/petrijr/wizard/pkg/api"
)

// PostgresStateStore is a StateStore backed by PostgreSQL.
//
// It expects an *sql.DB using a Postgres driver. The caller is responsible
// for importing the driver, e.g.:
//
//	import _ "github.com/jackc/pgx/v5/stdlib"
type PostgresStateStore struct {
	db *sql.DB
}

var _ api.StateStore = (*PostgresStateStore)(nil)

// NewPostgresStateStore initializes the required schema in the given
// database and returns a new PostgresStateStore.
func NewPostgresStateStore(db *sql.DB) (*PostgresStateStore, error) {
	s := &PostgresStateStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("init wizard state schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStateStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS wizard_states (
			prefix TEXT PRIMARY KEY,
			state BYTEA NOT NULL,
			updated_at BIGINT NOT NULL
		);`,
	)
	return err
}

func (s *PostgresStateStore) Load(ctx context.Context, prefix string) (*api.WizardState, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT state FROM wizard_states WHERE prefix = $1`, prefix,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return api.NewWizardState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load wizard state %q: %w", prefix, err)
	}
	return DecodeState(data)
}

func (s *PostgresStateStore) Save(ctx context.Context, prefix string, state *api.WizardState) error {
	data, err := EncodeState(state)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO wizard_states (prefix, state, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (prefix) DO UPDATE SET
			state = EXCLUDED.state,
			updated_at = EXCLUDED.updated_at`,
		prefix,
		data,
		time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save wizard state %q: %w", prefix, err)
	}
	return nil
}

func (s *PostgresStateStore) Reset(ctx context.Context, prefix string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM wizard_states WHERE prefix = $1`, prefix)
	if err != nil {
		return fmt.Errorf("reset wizard state %q: %w", prefix, err)
	}
	return nil
}
