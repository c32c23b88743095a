package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amishk599/jobdeck/internal/model"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id          TEXT PRIMARY KEY,
	dedup_key   TEXT NOT NULL,
	status      TEXT NOT NULL,
	retries     INTEGER NOT NULL DEFAULT 0,
	last_error  TEXT NOT NULL DEFAULT '',
	job         TEXT NOT NULL,
	card        TEXT,
	ingested_at INTEGER NOT NULL,
	queued_at   INTEGER,
	started_at  INTEGER,
	enriched_at INTEGER,
	failed_at   INTEGER,
	version     INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_jobs_dedup ON jobs (dedup_key, ingested_at);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs (status, queued_at);
`

const recordColumns = `id, dedup_key, status, retries, last_error, job, card,
	ingested_at, queued_at, started_at, enriched_at, failed_at, version`

// keyChunk bounds the number of bound parameters per IN (...) query.
const keyChunk = 500

// SQLiteStore persists job records and their enrichment state.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures the
// jobs table exists. Writers are serialized through a single connection and
// transactions take the write lock up front.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating jobs table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// InsertJobs writes records in a single transaction.
func (s *SQLiteStore) InsertJobs(ctx context.Context, records []model.JobRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO jobs
		(id, dedup_key, status, retries, last_error, job, card, ingested_at, queued_at, version)
		VALUES (?, ?, ?, 0, '', ?, NULL, ?, ?, 0)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		job, err := json.Marshal(r.Job)
		if err != nil {
			return fmt.Errorf("encoding job %s: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.DedupKey, string(r.Status), string(job),
			r.IngestedAt.UnixNano(), nullTime(r.QueuedAt)); err != nil {
			return fmt.Errorf("inserting job %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}
	return nil
}

// ExistingKeys returns which of keys were ingested at or after since.
func (s *SQLiteStore) ExistingKeys(ctx context.Context, keys []string, since time.Time) (map[string]bool, error) {
	found := make(map[string]bool)
	for start := 0; start < len(keys); start += keyChunk {
		end := min(start+keyChunk, len(keys))
		chunk := keys[start:end]

		args := make([]any, 0, len(chunk)+1)
		args = append(args, since.UnixNano())
		for _, k := range chunk {
			args = append(args, k)
		}
		query := `SELECT DISTINCT dedup_key FROM jobs WHERE ingested_at >= ? AND dedup_key IN (` +
			placeholders(len(chunk)) + `)`

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("loading existing keys: %w", err)
		}
		for rows.Next() {
			var k string
			if err := rows.Scan(&k); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning key: %w", err)
			}
			found[k] = true
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("loading existing keys: %w", err)
		}
	}
	return found, nil
}

// Get returns one record by ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (model.JobRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM jobs WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.JobRecord{}, fmt.Errorf("job %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return model.JobRecord{}, fmt.Errorf("loading job %s: %w", id, err)
	}
	return rec, nil
}

// ClaimPending moves up to n of the oldest pending records to processing in
// one transaction. Each row is swapped only if its status and version are
// unchanged, so concurrent claimers never receive the same record.
func (s *SQLiteStore) ClaimPending(ctx context.Context, n int, now time.Time) ([]model.JobRecord, error) {
	if n <= 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin claim: %w", err)
	}
	defer tx.Rollback()

	type candidate struct {
		id      string
		version int64
	}
	rows, err := tx.QueryContext(ctx, `SELECT id, version FROM jobs
		WHERE status = ? ORDER BY queued_at, id LIMIT ?`, string(model.StatusPending), n)
	if err != nil {
		return nil, fmt.Errorf("selecting pending jobs: %w", err)
	}
	var candidates []candidate
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.id, &c.version); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning pending job: %w", err)
		}
		candidates = append(candidates, c)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("selecting pending jobs: %w", err)
	}

	var claimed []model.JobRecord
	for _, c := range candidates {
		res, err := tx.ExecContext(ctx, `UPDATE jobs SET status = ?, started_at = ?, version = version + 1
			WHERE id = ? AND version = ? AND status = ?`,
			string(model.StatusProcessing), now.UnixNano(), c.id, c.version, string(model.StatusPending))
		if err != nil {
			return nil, fmt.Errorf("claiming job %s: %w", c.id, err)
		}
		if affected, _ := res.RowsAffected(); affected != 1 {
			continue
		}
		rec, err := scanRecord(tx.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM jobs WHERE id = ?`, c.id))
		if err != nil {
			return nil, fmt.Errorf("reloading claimed job %s: %w", c.id, err)
		}
		claimed = append(claimed, rec)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit claim: %w", err)
	}
	return claimed, nil
}

// Update writes rec if the stored version still equals rec.Version and bumps
// the version. It returns model.ErrConflict when another writer got there first.
func (s *SQLiteStore) Update(ctx context.Context, rec model.JobRecord) (model.JobRecord, error) {
	var card any
	if rec.Card != nil {
		b, err := json.Marshal(rec.Card)
		if err != nil {
			return rec, fmt.Errorf("encoding card %s: %w", rec.ID, err)
		}
		card = string(b)
	}

	res, err := s.db.ExecContext(ctx, `UPDATE jobs SET
		status = ?, retries = ?, last_error = ?, card = ?,
		queued_at = ?, started_at = ?, enriched_at = ?, failed_at = ?,
		version = version + 1
		WHERE id = ? AND version = ?`,
		string(rec.Status), rec.Retries, rec.LastError, card,
		nullTime(rec.QueuedAt), nullTime(rec.StartedAt), nullTime(rec.EnrichedAt), nullTime(rec.FailedAt),
		rec.ID, rec.Version)
	if err != nil {
		return rec, fmt.Errorf("updating job %s: %w", rec.ID, err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		if _, err := s.Get(ctx, rec.ID); err != nil {
			return rec, err
		}
		return rec, fmt.Errorf("job %s at version %d: %w", rec.ID, rec.Version, model.ErrConflict)
	}
	rec.Version++
	return rec, nil
}

// Requeue moves every record in status from back to pending and returns the
// affected IDs. A non-zero startedBefore limits the move to records whose
// started_at is older than it.
func (s *SQLiteStore) Requeue(ctx context.Context, from model.Status, startedBefore, now time.Time) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin requeue: %w", err)
	}
	defer tx.Rollback()

	where := `status = ?`
	args := []any{string(from)}
	if !startedBefore.IsZero() {
		where += ` AND started_at < ?`
		args = append(args, startedBefore.UnixNano())
	}

	rows, err := tx.QueryContext(ctx, `SELECT id FROM jobs WHERE `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("selecting %s jobs: %w", from, err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning id: %w", err)
		}
		ids = append(ids, id)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("selecting %s jobs: %w", from, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	updArgs := append([]any{string(model.StatusPending), now.UnixNano()}, args...)
	if _, err := tx.ExecContext(ctx, `UPDATE jobs SET status = ?, queued_at = ?, started_at = NULL,
		version = version + 1 WHERE `+where, updArgs...); err != nil {
		return nil, fmt.Errorf("requeueing %s jobs: %w", from, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit requeue: %w", err)
	}
	return ids, nil
}

// ListByStatus returns up to limit records in status, oldest queued first.
func (s *SQLiteStore) ListByStatus(ctx context.Context, status model.Status, limit int) ([]model.JobRecord, error) {
	return s.query(ctx, `SELECT `+recordColumns+` FROM jobs WHERE status = ?
		ORDER BY COALESCE(queued_at, ingested_at), id LIMIT ?`, string(status), limit)
}

// ListStuck returns processing records whose started_at is before cutoff.
func (s *SQLiteStore) ListStuck(ctx context.Context, cutoff time.Time) ([]model.JobRecord, error) {
	return s.query(ctx, `SELECT `+recordColumns+` FROM jobs WHERE status = ? AND started_at < ?
		ORDER BY started_at, id`, string(model.StatusProcessing), cutoff.UnixNano())
}

// CountByStatus returns the number of records per status. Every known status
// is present in the result, zero when empty.
func (s *SQLiteStore) CountByStatus(ctx context.Context) (map[model.Status]int, error) {
	counts := make(map[model.Status]int, len(model.AllStatuses))
	for _, st := range model.AllStatuses {
		counts[st] = 0
	}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting jobs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var st string
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[model.Status(st)] = n
	}
	return counts, rows.Err()
}

// IsEmpty returns true if the jobs table has no entries.
func (s *SQLiteStore) IsEmpty(ctx context.Context) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs").Scan(&count); err != nil {
		return false, fmt.Errorf("checking if store is empty: %w", err)
	}
	return count == 0, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]model.JobRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	var out []model.JobRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (model.JobRecord, error) {
	var (
		rec                                    model.JobRecord
		status, job                            string
		card                                   sql.NullString
		ingested                               int64
		queued, started, enriched, failedAtRaw sql.NullInt64
	)
	if err := sc.Scan(&rec.ID, &rec.DedupKey, &status, &rec.Retries, &rec.LastError, &job, &card,
		&ingested, &queued, &started, &enriched, &failedAtRaw, &rec.Version); err != nil {
		return rec, err
	}

	rec.Status = model.Status(status)
	rec.IngestedAt = time.Unix(0, ingested).UTC()
	rec.QueuedAt = timePtr(queued)
	rec.StartedAt = timePtr(started)
	rec.EnrichedAt = timePtr(enriched)
	rec.FailedAt = timePtr(failedAtRaw)

	if err := json.Unmarshal([]byte(job), &rec.Job); err != nil {
		return rec, fmt.Errorf("decoding job %s: %w", rec.ID, err)
	}
	if card.Valid && card.String != "" {
		var c model.EnrichedJobCard
		if err := json.Unmarshal([]byte(card.String), &c); err != nil {
			return rec, fmt.Errorf("decoding card %s: %w", rec.ID, err)
		}
		rec.Card = &c
	}
	return rec, nil
}

func nullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(0, v.Int64).UTC()
	return &t
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
