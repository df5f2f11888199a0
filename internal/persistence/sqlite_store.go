package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/petrijr/wizard/pkg/api"
)

// SQLiteStateStore is a StateStore backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteStateStore struct {
	db *sql.DB
}

var _ api.StateStore = (*SQLiteStateStore)(nil)

// NewSQLiteStateStore initializes the required schema in the given
// database and returns a new SQLiteStateStore.
func NewSQLiteStateStore(db *sql.DB) (*SQLiteStateStore, error) {
	s := &SQLiteStateStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("init wizard state schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStateStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS wizard_states (
			prefix TEXT PRIMARY KEY,
			state BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
	)
	return err
}

func (s *SQLiteStateStore) Load(ctx context.Context, prefix string) (*api.WizardState, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT state FROM wizard_states WHERE prefix = ?`, prefix,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return api.NewWizardState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load wizard state %q: %w", prefix, err)
	}
	return DecodeState(data)
}

func (s *SQLiteStateStore) Save(ctx context.Context, prefix string, state *api.WizardState) error {
	data, err := EncodeState(state)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO wizard_states (prefix, state, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(prefix) DO UPDATE SET
			state = excluded.state,
			updated_at = excluded.updated_at`,
		prefix,
		data,
		time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save wizard state %q: %w", prefix, err)
	}
	return nil
}

func (s *SQLiteStateStore) Reset(ctx context.Context, prefix string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM wizard_states WHERE prefix = ?`, prefix)
	if err != nil {
		return fmt.Errorf("reset wizard state %q: %w", prefix, err)
	}
	return nil
}
