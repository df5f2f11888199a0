package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/petrijr/wizard/pkg/api"
)

// SQLiteEventStore stores wizard events in SQLite.
type SQLiteEventStore struct {
	db *sql.DB
}

var _ api.EventStore = (*SQLiteEventStore)(nil)

func NewSQLiteEventStore(db *sql.DB) (*SQLiteEventStore, error) {
	s := &SQLiteEventStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteEventStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS wizard_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			prefix TEXT NOT NULL,
			at INTEGER NOT NULL,
			type TEXT NOT NULL,
			wizard TEXT NOT NULL DEFAULT '',
			step TEXT NOT NULL DEFAULT '',
			detail TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_wizard_events_prefix ON wizard_events(prefix, id);
	`)
	return err
}

func (s *SQLiteEventStore) AppendEvent(ctx context.Context, ev api.WizardEvent) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wizard_events (prefix, at, type, wizard, step, detail)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ev.Prefix,
		at.UnixNano(),
		string(ev.Type),
		ev.Wizard,
		string(ev.Step),
		ev.Detail,
	)
	return err
}

func (s *SQLiteEventStore) ListEvents(ctx context.Context, prefix string) ([]api.WizardEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, prefix, at, type, wizard, step, detail
		FROM wizard_events
		WHERE prefix = ?
		ORDER BY id ASC`, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []api.WizardEvent
	for rows.Next() {
		var (
			seq    int64
			pfx    string
			atN    int64
			typ    string
			wizard string
			step   string
			detail string
		)
		if err := rows.Scan(&seq, &pfx, &atN, &typ, &wizard, &step, &detail); err != nil {
			return nil, err
		}
		out = append(out, api.WizardEvent{
			Seq:    seq,
			Prefix: pfx,
			At:     time.Unix(0, atN),
			Type:   api.EventType(typ),
			Wizard: wizard,
			Step:   api.StepID(step),
			Detail: detail,
		})
	}
	return out, rows.Err()
}
