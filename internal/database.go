package internal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const stateSchema = `
CREATE TABLE IF NOT EXISTS credentials (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	access     TEXT    NOT NULL,
	refresh    TEXT    NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS pending_updates (
	chat_id   INTEGER PRIMARY KEY,
	payload   TEXT    NOT NULL,
	attempts  INTEGER NOT NULL DEFAULT 0,
	last_error TEXT,
	queued_at INTEGER NOT NULL
);
`

// StateDB is the local sqlite file holding the login and the sync outbox
type StateDB struct {
	db   *sql.DB
	path string
}

// OpenStateDB opens (creating if needed) the state database at path
func OpenStateDB(path string) (*StateDB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, &StorageError{Path: path, Op: "open", Err: err}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &StorageError{Path: path, Op: "open", Err: err}
	}
	// sqlite serializes writers; one connection avoids SQLITE_BUSY between them
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &StorageError{Path: path, Op: "open", Err: fmt.Errorf("database ping failed: %w", err)}
	}

	if _, err := db.Exec(stateSchema); err != nil {
		db.Close()
		return nil, &StorageError{Path: path, Op: "migrate", Err: err}
	}

	LogDebug("Opened state database %s", path)
	return &StateDB{db: db, path: path}, nil
}

// Path returns the database file location
func (s *StateDB) Path() string {
	return s.path
}

// Close closes the database
func (s *StateDB) Close() error {
	return s.db.Close()
}

// Credentials returns the token store backed by this database
func (s *StateDB) Credentials() *CredentialStore {
	return &CredentialStore{db: s.db, path: s.path}
}

// Outbox returns the pending-sync queue backed by this database
func (s *StateDB) Outbox() *Outbox {
	return &Outbox{db: s.db, path: s.path}
}

// ColumnInfo describes one table column
type ColumnInfo struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	NotNull    bool   `json:"not_null"`
	PrimaryKey bool   `json:"primary_key"`
}

// TableInfo describes one table of the state database
type TableInfo struct {
	Name    string       `json:"name"`
	Rows    int          `json:"rows"`
	Columns []ColumnInfo `json:"columns"`
}

// Describe lists the tables with their schema and row counts
func (s *StateDB) Describe() ([]TableInfo, error) {
	rows, err := s.db.Query(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, &StorageError{Path: s.path, Op: "read", Err: err}
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, &StorageError{Path: s.path, Op: "read", Err: err}
		}
		names = append(names, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Path: s.path, Op: "read", Err: err}
	}

	tables := make([]TableInfo, 0, len(names))
	for _, name := range names {
		info := TableInfo{Name: name}
		if err := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %q", name)).Scan(&info.Rows); err != nil {
			return nil, &StorageError{Path: s.path, Op: "read", Err: err}
		}
		if info.Columns, err = s.columns(name); err != nil {
			return nil, &StorageError{Path: s.path, Op: "read", Err: err}
		}
		tables = append(tables, info)
	}
	return tables, nil
}

func (s *StateDB) columns(table string) ([]ColumnInfo, error) {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []ColumnInfo
	for rows.Next() {
		var (
			col          ColumnInfo
			cid          int
			notNull, pk  int
			defaultValue sql.NullString
		)
		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &defaultValue, &pk); err != nil {
			return nil, err
		}
		col.NotNull = notNull == 1
		col.PrimaryKey = pk == 1
		columns = append(columns, col)
	}
	return columns, rows.Err()
}
