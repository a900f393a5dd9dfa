package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	_ "github.com/mattn/go-sqlite3"
)

// OpenSQLite opens (or creates) the sqlite database shared by every
// collection of a sqlite-backed factory.
func OpenSQLite(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	// Manually enable foreign keys and WAL mode
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	logger.Debug().Str("path", dataSourceName).Msg("sqlite connection established")
	return db, nil
}

// SQLiteStore keeps one entity kind in its own table, one row per record with
// the record body stored as JSON. Decimal fields survive as strings inside
// the JSON payload, so no precision is lost.
type SQLiteStore[T any, PT Record[T]] struct {
	db    *sql.DB
	table string
}

// NewSQLiteStore creates the kind's table if needed and returns a store bound
// to it.
func NewSQLiteStore[T any, PT Record[T]](db *sql.DB) (*SQLiteStore[T, PT], error) {
	var zero T
	s := &SQLiteStore[T, PT]{db: db, table: "records_" + PT(&zero).Kind()}
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);`, s.table)
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("could not initialize schema for %s: %w", s.table, err)
	}
	return s, nil
}

func (s *SQLiteStore[T, PT]) scan(row interface{ Scan(...any) error }) (T, error) {
	var zero T
	var raw string
	if err := row.Scan(&raw); err != nil {
		return zero, err
	}
	var rec T
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return zero, fmt.Errorf("failed to decode record from %s: %w", s.table, err)
	}
	return rec, nil
}

func (s *SQLiteStore[T, PT]) put(rec T, insert bool) error {
	p := PT(&rec)
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record for %s: %w", s.table, err)
	}
	if insert {
		_, err = s.db.Exec(
			fmt.Sprintf(`INSERT INTO %s (id, data, created_at, updated_at) VALUES (?, ?, ?, ?)`, s.table),
			p.EntityID(), string(raw), p.Created(), time.Now().UTC(),
		)
	} else {
		_, err = s.db.Exec(
			fmt.Sprintf(`UPDATE %s SET data = ?, updated_at = ? WHERE id = ?`, s.table),
			string(raw), time.Now().UTC(), p.EntityID(),
		)
	}
	if err != nil {
		return fmt.Errorf("failed to store record in %s: %w", s.table, err)
	}
	return nil
}

func (s *SQLiteStore[T, PT]) Get(id string) (T, bool, error) {
	var zero T
	row := s.db.QueryRow(fmt.Sprintf(`SELECT data FROM %s WHERE id = ?`, s.table), id)
	rec, err := s.scan(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return zero, false, nil
		}
		return zero, false, fmt.Errorf("failed to get record from %s: %w", s.table, err)
	}
	return rec, true, nil
}

func (s *SQLiteStore[T, PT]) List(opts ListOptions) (Page[T], error) {
	var page Page[T]
	if err := s.db.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.table)).Scan(&page.Total); err != nil {
		return Page[T]{}, fmt.Errorf("failed to count records in %s: %w", s.table, err)
	}

	query := fmt.Sprintf(`SELECT data FROM %s ORDER BY created_at ASC, id ASC`, s.table)
	args := []any{}
	if opts.paged() {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, opts.Limit, (opts.Page-1)*opts.Limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return Page[T]{}, fmt.Errorf("failed to list records in %s: %w", s.table, err)
	}
	defer rows.Close()

	page.Data = []T{}
	for rows.Next() {
		rec, err := s.scan(rows)
		if err != nil {
			return Page[T]{}, fmt.Errorf("failed to scan record from %s: %w", s.table, err)
		}
		page.Data = append(page.Data, rec)
	}
	if err := rows.Err(); err != nil {
		return Page[T]{}, fmt.Errorf("error during rows iteration for %s: %w", s.table, err)
	}
	return page, nil
}

func (s *SQLiteStore[T, PT]) Create(rec T) (T, error) {
	var zero T
	stored := PT(&rec).Clone()
	p := PT(&stored)
	p.SetEntityID(uuid.NewString())
	p.StampCreated(time.Now().UTC())
	if err := s.put(stored, true); err != nil {
		return zero, err
	}
	return p.Clone(), nil
}

func (s *SQLiteStore[T, PT]) Update(id string, mutate func(*T) error) (T, bool, error) {
	var zero T
	current, ok, err := s.Get(id)
	if err != nil {
		return zero, false, err
	}
	if !ok {
		return zero, false, nil
	}
	createdAt := PT(&current).Created()
	next := PT(&current).Clone()
	p := PT(&next)
	if err := mutate(&next); err != nil {
		return zero, true, err
	}
	p.SetEntityID(id)
	p.StampCreated(createdAt)
	p.StampUpdated(time.Now().UTC())
	if err := s.put(next, false); err != nil {
		return zero, true, err
	}
	return p.Clone(), true, nil
}

func (s *SQLiteStore[T, PT]) Delete(id string) (bool, error) {
	result, err := s.db.Exec(fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, s.table), id)
	if err != nil {
		return false, fmt.Errorf("failed to delete record from %s: %w", s.table, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return affected > 0, nil
}
