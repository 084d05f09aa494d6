package database

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jgoulah/billchart/pkg/models"
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
}

// New creates a new database connection and initializes the schema
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the necessary tables
func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS bill_records (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL,
		commodity TEXT NOT NULL,
		month INTEGER,
		year INTEGER,
		fields TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(commodity, id)
	);
	CREATE INDEX IF NOT EXISTS idx_bill_commodity ON bill_records(commodity);
	CREATE INDEX IF NOT EXISTS idx_bill_period ON bill_records(commodity, year, month);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// InsertRecords stores records for a commodity, ignoring ids already present.
// Records without an id get a random one. It returns how many rows were added.
func (db *DB) InsertRecords(kind models.Commodity, records []models.RawRecord) (int, error) {
	return db.writeRecords(kind, records, false)
}

// ReplaceRecords swaps a commodity's records for the given set in one
// transaction; readers see either the old or the new set, and a failed insert
// keeps the old one.
func (db *DB) ReplaceRecords(kind models.Commodity, records []models.RawRecord) (int, error) {
	return db.writeRecords(kind, records, true)
}

func (db *DB) writeRecords(kind models.Commodity, records []models.RawRecord, replace bool) (int, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("inserting records: unknown commodity %v", kind)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if replace {
		if _, err := tx.Exec(`DELETE FROM bill_records WHERE commodity = ?`, kind.String()); err != nil {
			return 0, fmt.Errorf("clearing records: %w", err)
		}
	}

	stmt, err := tx.Prepare(`
	INSERT OR IGNORE INTO bill_records (id, commodity, month, year, fields, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	createdAt := time.Now().UTC().Format(time.RFC3339)
	inserted := 0
	for _, rec := range records {
		id := strings.TrimSpace(rec[models.FieldID])
		if id == "" {
			id = uuid.NewString()
		}

		fields, err := json.Marshal(rec, json.Deterministic(true))
		if err != nil {
			return 0, fmt.Errorf("encoding record %s: %w", id, err)
		}

		res, err := stmt.Exec(id, kind.String(), nullableInt(rec[models.FieldMonth]), nullableInt(rec[models.FieldYear]), string(fields), createdAt)
		if err != nil {
			return 0, fmt.Errorf("inserting record %s: %w", id, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing records: %w", err)
	}
	return inserted, nil
}

// ListRecords returns a commodity's records in insertion order
func (db *DB) ListRecords(kind models.Commodity) ([]models.RawRecord, error) {
	rows, err := db.conn.Query(`
	SELECT fields
	FROM bill_records
	WHERE commodity = ?
	ORDER BY seq ASC
	`, kind.String())
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var results []models.RawRecord
	for rows.Next() {
		var fields string
		if err := rows.Scan(&fields); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		var rec models.RawRecord
		if err := json.Unmarshal([]byte(fields), &rec); err != nil {
			return nil, fmt.Errorf("decoding record: %w", err)
		}
		results = append(results, rec)
	}

	return results, rows.Err()
}

// Count returns how many records are stored for a commodity
func (db *DB) Count(kind models.Commodity) (int, error) {
	var n int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM bill_records WHERE commodity = ?`, kind.String()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}

// nullableInt keeps the month/year columns queryable; the raw text stays in fields
func nullableInt(s string) sql.NullInt64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: v, Valid: true}
}
