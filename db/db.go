// Package db keeps optional press statistics in SQLite.
package db

import (
	"database/sql"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/dasdy/keyoverlay/logging"
	"github.com/dasdy/keyoverlay/model"

	_ "github.com/mattn/go-sqlite3"
)

var ctx = logging.PackageCtx("db")

type SQLiteStorage struct {
	db *sql.DB
}

func NewStorage(db *sql.DB) *SQLiteStorage {
	return &SQLiteStorage{db}
}

func InitDbStorage(db *sql.DB) error {
	sqlStmt := `
	create table if not exists keypresses(ch text not null, ts datetime not null);`

	_, err := db.Exec(sqlStmt)
	if err != nil {
		return fmt.Errorf("%q: %w", sqlStmt, err)
	}

	sqlStmt = `create index if not exists keypresses_tsix on keypresses (ts ASC);`

	_, err = db.Exec(sqlStmt)
	if err != nil {
		return fmt.Errorf("%q: %w", sqlStmt, err)
	}

	return nil
}

// NewStorageFromPath opens (or creates) the statistics database at path.
func NewStorageFromPath(path string) (*SQLiteStorage, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s as sqlite file: %w", path, err)
	}

	// In-memory databases live per connection.
	conn.SetMaxOpenConns(1)

	if err := InitDbStorage(conn); err != nil {
		conn.Close()

		return nil, err
	}

	slog.DebugContext(ctx, "statistics storage ready", "path", path)

	return NewStorage(conn), nil
}

func (s *SQLiteStorage) Store(event model.PressEvent) error {
	_, err := s.db.Exec(`insert into keypresses(ch, ts) values(?, ?)`,
		string(event.Char), event.At.UTC())
	if err != nil {
		return fmt.Errorf("store press: %w", err)
	}

	return nil
}

// GatherAll counts presses per character, most pressed first.
func (s *SQLiteStorage) GatherAll() ([]model.KeyCount, error) {
	rows, err := s.db.Query(
		`select ch, count(*) as cnt
        from keypresses
        group by ch
        order by cnt desc, ch`)
	if err != nil {
		return nil, fmt.Errorf("query counts: %w", err)
	}

	defer rows.Close()

	result := make([]model.KeyCount, 0)

	for rows.Next() {
		var (
			ch    string
			count int
		)

		if err := rows.Scan(&ch, &count); err != nil {
			return nil, fmt.Errorf("scan counts: %w", err)
		}

		for _, r := range ch {
			result = append(result, model.KeyCount{Char: r, Count: count})

			break
		}
	}

	return result, rows.Err()
}

// AllIterator walks every stored press in time order.
func (s *SQLiteStorage) AllIterator() (iter.Seq[model.PressEvent], error) {
	rows, err := s.db.Query(`select ch, ts from keypresses order by ts, rowid`)
	if err != nil {
		return nil, fmt.Errorf("query presses: %w", err)
	}

	return func(yield func(model.PressEvent) bool) {
		defer rows.Close()

		for rows.Next() {
			var (
				ch string
				ts time.Time
			)

			if err := rows.Scan(&ch, &ts); err != nil {
				slog.ErrorContext(ctx, "could not scan press", "error", err)

				return
			}

			for _, r := range ch {
				if !yield(model.PressEvent{Char: r, At: ts}) {
					return
				}

				break
			}
		}
	}, nil
}

func (s *SQLiteStorage) Close() {
	if err := s.db.Close(); err != nil {
		slog.ErrorContext(ctx, "could not close statistics storage", "error", err)
	}
}
