// Package sqlite provides a SQLite-backed command log and stock store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/iwtcode/conveyorControl/internal/domain/entities"
	"github.com/iwtcode/conveyorControl/internal/interfaces"
	"github.com/iwtcode/conveyorControl/internal/repository/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists the command log and stock summaries in SQLite.
type Store struct {
	sqlDB *sql.DB
}

var (
	_ interfaces.CommandLogRepository = (*Store)(nil)
	_ interfaces.StockRepository      = (*Store)(nil)
)

func toNanos(value time.Time) int64 {
	return value.UTC().UnixNano()
}

func fromNanos(value int64) time.Time {
	return time.Unix(0, value).UTC()
}

// Open opens a SQLite store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func applyMigrations(sqlDB *sql.DB, migrationFS fs.FS) error {
	if _, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
    name TEXT PRIMARY KEY,
    applied_at INTEGER NOT NULL
)`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	entries, err := fs.ReadDir(migrationFS, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		var applied int
		if err := sqlDB.QueryRow(`SELECT COUNT(1) FROM schema_migrations WHERE name = ?`, file).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", file, err)
		}
		if applied > 0 {
			continue
		}
		content, err := fs.ReadFile(migrationFS, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}

		tx, err := sqlDB.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", file, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", file, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`, file, time.Now().UTC().UnixMilli()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
	}
	return nil
}

// Append inserts one command log record and assigns its ID.
func (s *Store) Append(ctx context.Context, record *entities.ConveyorStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	var reason sql.NullString
	if record.Reason != nil {
		reason = sql.NullString{String: *record.Reason, Valid: true}
	}

	res, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO conveyor_status (timestamp, command, reason) VALUES (?, ?, ?)`,
		toNanos(record.Timestamp), string(record.Command), reason,
	)
	if err != nil {
		return fmt.Errorf("append conveyor status: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read conveyor status id: %w", err)
	}
	record.ID = uint64(id)
	return nil
}

// Query streams matching records; rows are read as the caller iterates.
func (s *Store) Query(ctx context.Context, filter entities.HistoryFilter) iter.Seq2[entities.ConveyorStatus, error] {
	return func(yield func(entities.ConveyorStatus, error) bool) {
		if s == nil || s.sqlDB == nil {
			yield(entities.ConveyorStatus{}, fmt.Errorf("storage is not configured"))
			return
		}

		var (
			where []string
			args  []any
		)
		if !filter.From.IsZero() {
			where = append(where, "timestamp >= ?")
			args = append(args, toNanos(filter.From))
		}
		if !filter.To.IsZero() {
			where = append(where, "timestamp < ?")
			args = append(args, toNanos(filter.To))
		}
		if len(filter.Commands) > 0 {
			marks := make([]string, len(filter.Commands))
			for i, c := range filter.Commands {
				marks[i] = "?"
				args = append(args, string(c))
			}
			where = append(where, "command IN ("+strings.Join(marks, ", ")+")")
		}

		query := `SELECT id, timestamp, command, reason FROM conveyor_status`
		if len(where) > 0 {
			query += " WHERE " + strings.Join(where, " AND ")
		}
		query += " ORDER BY timestamp ASC, id ASC"

		rows, err := s.sqlDB.QueryContext(ctx, query, args...)
		if err != nil {
			yield(entities.ConveyorStatus{}, fmt.Errorf("query conveyor status: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			rec, err := scanStatus(rows)
			if err != nil {
				yield(entities.ConveyorStatus{}, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(entities.ConveyorStatus{}, fmt.Errorf("iterate conveyor status: %w", err))
		}
	}
}

// Last returns the most recently appended record, or nil.
func (s *Store) Last(ctx context.Context) (*entities.ConveyorStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT id, timestamp, command, reason FROM conveyor_status ORDER BY id DESC LIMIT 1`)
	rec, err := scanStatus(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStatus(row rowScanner) (entities.ConveyorStatus, error) {
	var (
		id      int64
		ts      int64
		command string
		reason  sql.NullString
	)
	if err := row.Scan(&id, &ts, &command, &reason); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entities.ConveyorStatus{}, err
		}
		return entities.ConveyorStatus{}, fmt.Errorf("scan conveyor status: %w", err)
	}
	rec := entities.ConveyorStatus{
		ID:        uint64(id),
		Timestamp: fromNanos(ts),
		Command:   entities.Command(command),
	}
	if reason.Valid {
		r := reason.String
		rec.Reason = &r
	}
	return rec, nil
}

// Load returns every stock summary in insertion order.
func (s *Store) Load(ctx context.Context) ([]entities.StockSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT car_model, count, position, updated_at FROM stock_summary ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("load stock summary: %w", err)
	}
	defer rows.Close()

	var out []entities.StockSummary
	for rows.Next() {
		var (
			row       entities.StockSummary
			updatedAt int64
		)
		if err := rows.Scan(&row.CarModel, &row.Count, &row.Position, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan stock summary: %w", err)
		}
		row.UpdatedAt = fromNanos(updatedAt)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stock summary: %w", err)
	}
	return out, nil
}

// Save upserts one stock summary; the position of an existing row is kept.
func (s *Store) Save(ctx context.Context, summary entities.StockSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	updatedAt := summary.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO stock_summary (car_model, count, position, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (car_model) DO UPDATE SET count = excluded.count, updated_at = excluded.updated_at`,
		summary.CarModel, summary.Count, summary.Position, toNanos(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("save stock summary: %w", err)
	}
	return nil
}
