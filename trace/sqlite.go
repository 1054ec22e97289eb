package trace

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tailored-agentic-units/flow/observability"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore persists records in a SQLite database in WAL mode.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite creates or opens the database at path and applies the schema.
// Safe to call on an existing trace database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// One writer; concurrent connections only produce SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Append(ctx context.Context, r Record) error {
	data, err := json.Marshal(r.Data)
	if err != nil {
		return fmt.Errorf("append trace record: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO trace_records
		(correlation_id, event, level, router, source, port, destination, timestamp, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.CorrelationID,
		string(r.Event),
		int(r.Level),
		r.Router,
		r.Source,
		r.Port,
		r.Destination,
		r.Timestamp.UnixNano(),
		string(data),
	)
	if err != nil {
		return fmt.Errorf("append trace record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ByCorrelation(ctx context.Context, id string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, correlation_id, event, level, router, source, port, destination, timestamp, data
		FROM trace_records
		WHERE correlation_id = ?
		ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query trace: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r     Record
			event string
			level int
			nanos int64
			data  string
		)
		if err := rows.Scan(&r.Seq, &r.CorrelationID, &event, &level, &r.Router, &r.Source, &r.Port, &r.Destination, &nanos, &data); err != nil {
			return nil, fmt.Errorf("scan trace record: %w", err)
		}
		r.Event = observability.EventType(event)
		r.Level = observability.Level(level)
		r.Timestamp = time.Unix(0, nanos)
		if err := json.Unmarshal([]byte(data), &r.Data); err != nil {
			return nil, fmt.Errorf("decode trace data: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trace: %w", err)
	}
	return records, nil
}

func (s *SQLiteStore) Correlations(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT correlation_id
		FROM trace_records
		GROUP BY correlation_id
		ORDER BY MAX(seq) DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query correlations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan correlation: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
