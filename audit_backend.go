// audit_backend.go: Storage backends for the audit trail
//
// Two backends implement the same minimal contract: a SQLite database for
// queryable trails and a JSONL file for grep-able logs shipped to
// aggregators. Selection degrades gracefully (SQLite, then JSONL) so audit
// storage trouble never prevents store startup.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package chancfg

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver registration
)

// auditBackend abstracts audit event storage.
type auditBackend interface {
	// Write persists a batch of audit events. Safe for concurrent use.
	Write(events []AuditEvent) error

	// Flush commits pending writes to durable storage.
	Flush() error

	// Close releases resources. The backend must not be used afterwards.
	Close() error

	// Maintenance runs backend-specific upkeep such as retention cleanup.
	Maintenance() error

	// GetStats reports storage statistics. JSONL returns limited data.
	GetStats() (*AuditDatabaseStats, error)
}

// createAuditBackend selects a backend for the configuration: JSONL when
// the output file carries a .jsonl extension, otherwise SQLite with a
// JSONL fallback if the database cannot be opened.
func createAuditBackend(config AuditConfig) (auditBackend, error) {
	if config.OutputFile != "" && filepath.Ext(config.OutputFile) == ".jsonl" {
		return newJSONLBackend(config)
	}

	backend, err := newSQLiteBackend(config)
	if err == nil {
		return backend, nil
	}

	jsonlBackend, jsonlErr := newJSONLBackend(config)
	if jsonlErr != nil {
		return nil, fmt.Errorf("all audit backends failed - SQLite: %w, JSONL: %v", err, jsonlErr)
	}
	return jsonlBackend, nil
}

// defaultAuditDBPath is where audit events land when no OutputFile is set.
func defaultAuditDBPath() string {
	return filepath.Join(os.TempDir(), "chancfg", "channel-audit.db")
}

// AuditDatabaseStats reports statistics about the audit storage.
type AuditDatabaseStats struct {
	TotalEvents   int64            `json:"total_events"`
	EventsByLevel map[string]int64 `json:"events_by_level"`
	EventsByEvent map[string]int64 `json:"events_by_event"`
	OldestEvent   *time.Time       `json:"oldest_event"`
	NewestEvent   *time.Time       `json:"newest_event"`
	DatabaseSize  int64            `json:"database_size_bytes"`
}

// sqliteAuditBackend stores audit events in a SQLite database.
//
// WAL journal mode keeps readers and writers from blocking each other,
// which matters when several management processes share one audit
// database; the busy timeout rides out a peer's transaction instead of
// failing with a locked-database error.
type sqliteAuditBackend struct {
	db         *sql.DB
	dbPath     string
	insertStmt *sql.Stmt
	mu         sync.RWMutex
	closed     bool
}

func newSQLiteBackend(config AuditConfig) (*sqliteAuditBackend, error) {
	dbPath := config.OutputFile
	if dbPath == "" || filepath.Ext(dbPath) != ".db" {
		dbPath = defaultAuditDBPath()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create audit database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping audit database: %w", err)
	}

	backend := &sqliteAuditBackend{db: db, dbPath: dbPath}
	if err := backend.initializeSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize audit database schema: %w", err)
	}
	if err := backend.prepareStatements(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare audit database statements: %w", err)
	}

	// Retention cleanup at startup; not critical, so failure is ignored.
	_ = backend.Maintenance()

	return backend, nil
}

func (s *sqliteAuditBackend) initializeSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS channel_audit_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		level TEXT NOT NULL,
		event TEXT NOT NULL,
		channel INTEGER NOT NULL,
		tier TEXT,
		file_path TEXT,
		old_value TEXT,
		new_value TEXT,
		process_id INTEGER NOT NULL,
		process_name TEXT NOT NULL,
		context TEXT,
		checksum TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create channel_audit_events table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_channel_audit_timestamp ON channel_audit_events(timestamp)",
		"CREATE INDEX IF NOT EXISTS idx_channel_audit_channel ON channel_audit_events(channel, timestamp)",
		"CREATE INDEX IF NOT EXISTS idx_channel_audit_event ON channel_audit_events(event, timestamp)",
		"CREATE INDEX IF NOT EXISTS idx_channel_audit_created ON channel_audit_events(created_at)",
	}
	for _, indexSQL := range indexes {
		if _, err := s.db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create audit index: %w", err)
		}
	}
	return nil
}

func (s *sqliteAuditBackend) prepareStatements() error {
	insertSQL := `
	INSERT INTO channel_audit_events (
		timestamp, level, event, channel, tier,
		file_path, old_value, new_value,
		process_id, process_name, context, checksum
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := s.db.Prepare(insertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	s.insertStmt = stmt
	return nil
}

// Write persists a batch of events in one transaction.
func (s *sqliteAuditBackend) Write(events []AuditEvent) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return fmt.Errorf("cannot write to closed SQLite audit backend")
	}
	s.mu.RUnlock()

	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin audit transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	txStmt := tx.Stmt(s.insertStmt)
	defer func() { _ = txStmt.Close() }()

	for _, event := range events {
		if err = insertAuditEvent(txStmt, event); err != nil {
			return fmt.Errorf("failed to insert audit event: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit audit transaction: %w", err)
	}
	return nil
}

func insertAuditEvent(stmt *sql.Stmt, event AuditEvent) error {
	oldValueJSON, err := marshalAuditValue(event.OldValue)
	if err != nil {
		return err
	}
	newValueJSON, err := marshalAuditValue(event.NewValue)
	if err != nil {
		return err
	}
	contextJSON, err := marshalAuditValue(event.Context)
	if err != nil {
		return err
	}

	_, err = stmt.Exec(
		event.Timestamp.Format(time.RFC3339Nano),
		event.Level.String(),
		event.Event,
		event.Channel,
		event.Tier,
		event.FilePath,
		oldValueJSON,
		newValueJSON,
		event.ProcessID,
		event.ProcessName,
		contextJSON,
		event.Checksum,
	)
	return err
}

func marshalAuditValue(v interface{}) (string, error) {
	if v == nil {
		return "", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to serialize audit value: %w", err)
	}
	return string(data), nil
}

// Flush forces a WAL checkpoint so recent transactions reach the main
// database file.
func (s *sqliteAuditBackend) Flush() error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil
	}
	s.mu.RUnlock()

	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("failed to flush SQLite audit backend: %w", err)
	}
	return nil
}

// Maintenance deletes events past the retention window and refreshes the
// query planner statistics.
func (s *sqliteAuditBackend) Maintenance() error {
	const retentionDays = 90

	if _, err := s.db.Exec(
		"DELETE FROM channel_audit_events WHERE created_at < datetime('now', '-' || ? || ' days')",
		retentionDays,
	); err != nil {
		return fmt.Errorf("failed to cleanup old audit events: %w", err)
	}

	_, _ = s.db.Exec("PRAGMA optimize")
	return nil
}

// GetStats collects counts, groupings, and the event time range.
func (s *sqliteAuditBackend) GetStats() (*AuditDatabaseStats, error) {
	stats := &AuditDatabaseStats{
		EventsByLevel: make(map[string]int64),
		EventsByEvent: make(map[string]int64),
	}

	if err := s.db.QueryRow("SELECT COUNT(*) FROM channel_audit_events").Scan(&stats.TotalEvents); err != nil {
		return nil, fmt.Errorf("failed to get total events count: %w", err)
	}

	if err := s.scanGroupCounts("level", stats.EventsByLevel); err != nil {
		return nil, err
	}
	if err := s.scanGroupCounts("event", stats.EventsByEvent); err != nil {
		return nil, err
	}

	var oldestStr, newestStr sql.NullString
	err := s.db.QueryRow(
		"SELECT MIN(created_at), MAX(created_at) FROM channel_audit_events",
	).Scan(&oldestStr, &newestStr)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get event time range: %w", err)
	}
	if oldestStr.Valid {
		if oldest, err := time.Parse("2006-01-02 15:04:05", oldestStr.String); err == nil {
			stats.OldestEvent = &oldest
		}
	}
	if newestStr.Valid {
		if newest, err := time.Parse("2006-01-02 15:04:05", newestStr.String); err == nil {
			stats.NewestEvent = &newest
		}
	}

	if info, err := os.Stat(s.dbPath); err == nil {
		stats.DatabaseSize = info.Size()
	}
	return stats, nil
}

func (s *sqliteAuditBackend) scanGroupCounts(column string, dst map[string]int64) error {
	rows, err := s.db.Query(fmt.Sprintf(
		"SELECT %s, COUNT(*) FROM channel_audit_events GROUP BY %s", column, column))
	if err != nil {
		return fmt.Errorf("failed to get events by %s: %w", column, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("failed to scan %s stats: %w", column, err)
		}
		dst[key] = count
	}
	return rows.Err()
}

// Close flushes pending WAL data and releases the database. Safe to call
// multiple times.
func (s *sqliteAuditBackend) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		errs = append(errs, fmt.Errorf("failed to checkpoint during close: %w", err))
	}
	if s.insertStmt != nil {
		if err := s.insertStmt.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close insert statement: %w", err))
		}
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close database: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing SQLite audit backend: %v", errs)
	}
	return nil
}

// jsonlAuditBackend appends audit events to a JSONL file, one JSON object
// per line.
type jsonlAuditBackend struct {
	file       *os.File
	sourceFile string
	mu         sync.Mutex
	closed     bool
}

func newJSONLBackend(config AuditConfig) (*jsonlAuditBackend, error) {
	if config.OutputFile == "" {
		return nil, fmt.Errorf("JSONL backend requires OutputFile to be specified")
	}
	if err := os.MkdirAll(filepath.Dir(config.OutputFile), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create JSONL audit log directory: %w", err)
	}

	file, err := os.OpenFile(config.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open JSONL audit log file: %w", err)
	}
	return &jsonlAuditBackend{file: file, sourceFile: config.OutputFile}, nil
}

func (j *jsonlAuditBackend) Write(events []AuditEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return fmt.Errorf("cannot write to closed JSONL audit backend")
	}
	for _, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to serialize audit event: %w", err)
		}
		if _, err := j.file.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("failed to write audit event to JSONL: %w", err)
		}
	}
	return nil
}

func (j *jsonlAuditBackend) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	if err := j.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync JSONL audit file: %w", err)
	}
	return nil
}

// Maintenance is a no-op for JSONL; rotation is left to the host system.
func (j *jsonlAuditBackend) Maintenance() error {
	return nil
}

// GetStats reports file-level statistics; event counts would require a
// full file scan and are omitted.
func (j *jsonlAuditBackend) GetStats() (*AuditDatabaseStats, error) {
	stats := &AuditDatabaseStats{
		EventsByLevel: make(map[string]int64),
		EventsByEvent: make(map[string]int64),
	}
	if info, err := os.Stat(j.sourceFile); err == nil {
		stats.DatabaseSize = info.Size()
	}
	return stats, nil
}

func (j *jsonlAuditBackend) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	j.closed = true
	if j.file != nil {
		return j.file.Close()
	}
	return nil
}
