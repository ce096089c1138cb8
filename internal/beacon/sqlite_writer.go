package beacon

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

const (
	initBeaconSchemaSQL = `
CREATE TABLE IF NOT EXISTS beacons (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT    NOT NULL,
    seq        INTEGER NOT NULL,
    timestamp  DATETIME NOT NULL,
    latitude   REAL    NOT NULL,
    longitude  REAL    NOT NULL,
    altitude   REAL    NOT NULL,
    height     REAL    NOT NULL,
    home_lat   REAL    NOT NULL,
    home_lon   REAL    NOT NULL,
    speed      REAL    NOT NULL,
    course     REAL    NOT NULL,
    element    TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_beacons_session ON beacons (session_id, seq);`

	insertBeaconSQL = `
INSERT INTO beacons (session_id,
                     seq,
                     timestamp,
                     latitude,
                     longitude,
                     altitude,
                     height,
                     home_lat,
                     home_lon,
                     speed,
                     course,
                     element)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
)

// SQLiteWriter records beacons in a local SQLite database. The database is
// opened on first write.
type SQLiteWriter struct {
	dbPath string

	db     *sql.DB
	dbOnce sync.Once
	dbErr  error
}

// NewSQLiteWriter creates a writer for dbPath.
func NewSQLiteWriter(dbPath string) *SQLiteWriter {
	return &SQLiteWriter{dbPath: dbPath}
}

func (s *SQLiteWriter) getDB() (*sql.DB, error) {
	s.dbOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.dbErr = fmt.Errorf("opening database: %w", err)
			return
		}
		if _, err = db.Exec(initBeaconSchemaSQL); err != nil {
			_ = db.Close()
			s.dbErr = fmt.Errorf("initializing schema: %w", err)
			return
		}
		s.db = db
	})
	return s.db, s.dbErr
}

// Write inserts a single beacon.
func (s *SQLiteWriter) Write(b Beacon) error {
	return s.WriteBatch([]Beacon{b})
}

// WriteBatch inserts beacons in one transaction.
func (s *SQLiteWriter) WriteBatch(rows []Beacon) (err error) {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.Prepare(insertBeaconSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		rec := r.Record
		if _, err = stmt.Exec(r.SessionID, r.Seq, r.Timestamp,
			rec.Position.Lat, rec.Position.Lon, rec.Altitude, rec.Height,
			rec.Home.Lat, rec.Home.Lon, rec.Speed, rec.Course, r.Element); err != nil {
			return fmt.Errorf("inserting beacon: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing beacons: %w", err)
	}
	return nil
}

// Count returns the number of beacons stored for sessionID.
func (s *SQLiteWriter) Count(sessionID string) (int, error) {
	db, err := s.getDB()
	if err != nil {
		return 0, err
	}
	var n int
	err = db.QueryRow(`SELECT COUNT(*) FROM beacons WHERE session_id = ?`, sessionID).Scan(&n)
	return n, err
}

// Close closes the database if it was opened.
func (s *SQLiteWriter) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
