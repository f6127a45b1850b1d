// Package storage keeps an offline SQLite mirror of the record table and
// serves keyed searches from it.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"github.com/sw33tLie/estform/pkg/records"
)

// Logger is satisfied by logrus.
type Logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{})  {}

type DB struct {
	sql *sql.DB
	log Logger
}

type Option func(*DB)

func WithLogger(l Logger) Option {
	return func(d *DB) {
		if l != nil {
			d.log = l
		}
	}
}

func Open(path string, opts ...Option) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS records (
  id            TEXT PRIMARY KEY,
  run_id        INTEGER NOT NULL DEFAULT 0,
  first_seen_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  last_seen_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS record_fields (
  record_id TEXT NOT NULL,
  name      TEXT NOT NULL,
  value     TEXT NOT NULL,
  folded    TEXT NOT NULL DEFAULT '',
  PRIMARY KEY(record_id, name)
);
CREATE TABLE IF NOT EXISTS record_changes (
  id          INTEGER PRIMARY KEY,
  occurred_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  record_id   TEXT NOT NULL,
  name        TEXT,
  change_type TEXT NOT NULL CHECK (change_type IN ('added','updated','removed'))
);
CREATE INDEX IF NOT EXISTS idx_changes_time ON record_changes(occurred_at);
    `); err != nil {
		return nil, err
	}
	d := &DB{sql: db, log: nopLogger{}}
	for _, o := range opts {
		o(d)
	}
	if err := d.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return d, nil
}

// migrate adds the folded search column to mirrors created before it existed
// and fills it in.
func (d *DB) migrate(ctx context.Context) error {
	rows, err := d.sql.QueryContext(ctx, "SELECT name FROM pragma_table_info('record_fields')")
	if err != nil {
		return err
	}
	hasFolded := false
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			rows.Close()
			return err
		}
		hasFolded = hasFolded || col == "folded"
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if !hasFolded {
		if _, err := d.sql.ExecContext(ctx, "ALTER TABLE record_fields ADD COLUMN folded TEXT NOT NULL DEFAULT ''"); err != nil {
			return err
		}
	}
	if _, err := d.sql.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS idx_fields_folded ON record_fields(name, folded)"); err != nil {
		return err
	}

	stale, err := d.sql.QueryContext(ctx, "SELECT record_id, name, value FROM record_fields WHERE folded = '' AND value != ''")
	if err != nil {
		return err
	}
	type row struct{ id, name, value string }
	var pending []row
	for stale.Next() {
		var r row
		if err := stale.Scan(&r.id, &r.name, &r.value); err != nil {
			stale.Close()
			return err
		}
		pending = append(pending, r)
	}
	if err := stale.Close(); err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}
	d.log.Debugf("Folding %d mirrored field values for search", len(pending))
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, r := range pending {
		if _, err := tx.ExecContext(ctx, "UPDATE record_fields SET folded = ? WHERE record_id = ? AND name = ?", fold(r.value), r.id, r.name); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// fold maps s to the form searches compare: NFC, then Unicode case folding.
// Casers carry state, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// Count returns the number of mirrored records.
func (d *DB) Count(ctx context.Context) (int, error) {
	var n int
	err := d.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&n)
	return n, err
}

// Sync makes the mirror equal to recs, which must be the complete table.
// Records missing from recs are removed. Every change is logged. An empty
// recs over a populated mirror is refused with ErrEmptyUpstream.
func (d *DB) Sync(ctx context.Context, recs []records.Record) (changes []Change, summary Summary, err error) {
	if len(recs) == 0 {
		n, err := d.Count(ctx)
		if err != nil {
			return nil, summary, err
		}
		if n > 0 {
			d.log.Warnf("Refusing to sync an empty upstream over %d mirrored records", n)
			return nil, summary, ErrEmptyUpstream
		}
	}
	now := time.Now().UTC()
	runID := now.UnixNano()

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, summary, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	existing, err := loadFields(ctx, tx)
	if err != nil {
		return nil, summary, err
	}

	for _, r := range recs {
		if r.ID == "" {
			continue
		}
		old, existed := existing[r.ID]
		switch {
		case !existed:
			_, err = tx.ExecContext(ctx, `INSERT INTO records(id, run_id, first_seen_at, last_seen_at) VALUES(?,?,CURRENT_TIMESTAMP,CURRENT_TIMESTAMP)`, r.ID, runID)
			if err != nil {
				return nil, summary, err
			}
			if err = writeFields(ctx, tx, r); err != nil {
				return nil, summary, err
			}
			changes = append(changes, Change{OccurredAt: now, RecordID: r.ID, Name: r.Name(), ChangeType: "added"})
		case !sameFields(old, r.Fields):
			if err = writeFields(ctx, tx, r); err != nil {
				return nil, summary, err
			}
			changes = append(changes, Change{OccurredAt: now, RecordID: r.ID, Name: r.Name(), ChangeType: "updated"})
			fallthrough
		default:
			_, err = tx.ExecContext(ctx, `UPDATE records SET run_id = ?, last_seen_at = CURRENT_TIMESTAMP WHERE id = ?`, runID, r.ID)
			if err != nil {
				return nil, summary, err
			}
		}
		existing[r.ID] = r.Fields
	}

	// Sweep: records not touched in this run are gone upstream.
	stale, err := tx.QueryContext(ctx, "SELECT id FROM records WHERE run_id != ?", runID)
	if err != nil {
		return nil, summary, err
	}
	var removed []string
	for stale.Next() {
		var id string
		if err = stale.Scan(&id); err != nil {
			stale.Close()
			return nil, summary, err
		}
		removed = append(removed, id)
	}
	if err = stale.Close(); err != nil {
		return nil, summary, err
	}
	for _, id := range removed {
		if _, err = tx.ExecContext(ctx, "DELETE FROM record_fields WHERE record_id = ?", id); err != nil {
			return nil, summary, err
		}
		if _, err = tx.ExecContext(ctx, "DELETE FROM records WHERE id = ?", id); err != nil {
			return nil, summary, err
		}
		changes = append(changes, Change{OccurredAt: now, RecordID: id, Name: existing[id][records.FieldOfficialName], ChangeType: "removed"})
	}

	for _, c := range changes {
		_, err = tx.ExecContext(ctx, `INSERT INTO record_changes(occurred_at, record_id, name, change_type) VALUES(CURRENT_TIMESTAMP, ?, ?, ?)`, c.RecordID, nullIfEmpty(c.Name), c.ChangeType)
		if err != nil {
			return nil, summary, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, summary, err
	}
	for _, c := range changes {
		d.log.Debugf("Mirror %s: %s (%s)", c.ChangeType, c.RecordID, c.Name)
	}
	summary = summarize(changes, len(recs))
	d.log.Debugf("Mirror run %d: %d added, %d updated, %d removed, %d unchanged",
		runID, summary.Added, summary.Updated, summary.Removed, summary.Unchanged)
	return changes, summary, nil
}

// RecentChanges returns the latest logged changes, newest first.
func (d *DB) RecentChanges(ctx context.Context, limit int) ([]Change, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.sql.QueryContext(ctx, `SELECT occurred_at, record_id, COALESCE(name, ''), change_type
FROM record_changes ORDER BY occurred_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Change
	for rows.Next() {
		var c Change
		var occurredAt string
		if err := rows.Scan(&occurredAt, &c.RecordID, &c.Name, &c.ChangeType); err != nil {
			return nil, err
		}
		c.OccurredAt = parseTimestamp(occurredAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

// parseTimestamp accepts SQLite's CURRENT_TIMESTAMP text and the RFC 3339
// form the driver produces for DATETIME columns.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Search implements records.Source over the mirror.
func (d *DB) Search(ctx context.Context, q records.Query) ([]records.Record, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, nil
	}
	limit := q.Limit
	if limit <= 0 {
		limit = records.DefaultLimit
	}

	cond := "instr(folded, ?) > 0"
	if q.Match == records.Exact {
		cond = "trim(folded) = ?"
	}
	rows, err := d.sql.QueryContext(ctx,
		"SELECT record_id FROM record_fields WHERE name = ? AND "+cond+" ORDER BY value, record_id LIMIT ?",
		q.Field, fold(text), limit)
	if err != nil {
		return nil, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	fields, err := loadFields(ctx, d.sql, ids...)
	if err != nil {
		return nil, err
	}
	out := make([]records.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, records.Record{ID: id, Fields: fields[id]})
	}
	return out, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// loadFields returns the field maps of the given records, or of every record
// when ids is empty.
func loadFields(ctx context.Context, q queryer, ids ...string) (map[string]map[string]string, error) {
	query := "SELECT r.id, f.name, f.value FROM records r LEFT JOIN record_fields f ON f.record_id = r.id"
	args := make([]any, 0, len(ids))
	if len(ids) > 0 {
		query += " WHERE r.id IN (" + strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",") + ")"
		for _, id := range ids {
			args = append(args, id)
		}
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]map[string]string)
	for rows.Next() {
		var (
			id          string
			name, value sql.NullString
		)
		if err := rows.Scan(&id, &name, &value); err != nil {
			return nil, err
		}
		m, ok := out[id]
		if !ok {
			m = make(map[string]string)
			out[id] = m
		}
		if name.Valid {
			m[name.String] = value.String
		}
	}
	return out, rows.Err()
}

func writeFields(ctx context.Context, tx *sql.Tx, r records.Record) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM record_fields WHERE record_id = ?", r.ID); err != nil {
		return err
	}
	for name, value := range r.Fields {
		if _, err := tx.ExecContext(ctx, "INSERT INTO record_fields(record_id, name, value, folded) VALUES(?,?,?,?)", r.ID, name, value, fold(value)); err != nil {
			return fmt.Errorf("write field %q of %s: %w", name, r.ID, err)
		}
	}
	return nil
}

func sameFields(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// ErrEmptyUpstream means the upstream table came back empty while the mirror
// still holds records, which is far more likely a broken source than a wiped
// table.
var ErrEmptyUpstream = errors.New("upstream returned no records")
