package params

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS params_versions (
	version_id       TEXT PRIMARY KEY,
	parent_id        TEXT,
	heat_efficiency  REAL NOT NULL,
	reaction_rate_mod REAL NOT NULL,
	note             TEXT,
	created_at       TEXT NOT NULL,
	FOREIGN KEY (parent_id) REFERENCES params_versions(version_id)
);

CREATE TABLE IF NOT EXISTS active_params (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	version_id TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES params_versions(version_id)
);
`

// #endregion schema

// #region record

// Record is one immutable version of the global model parameters.
// Exactly one version is active at any instant; replacement is atomic.
type Record struct {
	VersionID            string
	ParentID             string
	HeatEfficiency       float64
	ReactionRateModifier float64
	Note                 string
	CreatedAt            time.Time
}

// Defaults for a fresh plant before any learned correction.
const (
	DefaultHeatEfficiency       = 0.92
	DefaultReactionRateModifier = 1.05
)

// #endregion record

// #region store

// Store manages versioned model parameters in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStoreWithDB wraps an existing connection. Used by tests.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion store

// #region create-initial

// CreateInitial inserts the default parameter version and makes it active.
func (s *Store) CreateInitial() (Record, error) {
	rec := Record{
		VersionID:            uuid.New().String(),
		HeatEfficiency:       DefaultHeatEfficiency,
		ReactionRateModifier: DefaultReactionRateModifier,
		Note:                 "plant defaults",
		CreatedAt:            time.Now().UTC(),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return Record{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO params_versions (version_id, parent_id, heat_efficiency, reaction_rate_mod, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.VersionID, nil, rec.HeatEfficiency, rec.ReactionRateModifier, rec.Note,
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Record{}, fmt.Errorf("insert version: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO active_params (id, version_id) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET version_id = excluded.version_id`,
		rec.VersionID,
	)
	if err != nil {
		return Record{}, fmt.Errorf("set active: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Record{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

// #endregion create-initial

// #region get

// GetCurrent reads the active parameter version.
func (s *Store) GetCurrent() (Record, error) {
	var versionID string
	err := s.db.QueryRow(`SELECT version_id FROM active_params WHERE id = 1`).Scan(&versionID)
	if err != nil {
		return Record{}, fmt.Errorf("get active: %w", err)
	}
	return s.GetVersion(versionID)
}

// GetVersion retrieves a specific parameter version by ID.
func (s *Store) GetVersion(id string) (Record, error) {
	var rec Record
	var parentID, note sql.NullString
	var createdStr string

	err := s.db.QueryRow(
		`SELECT version_id, parent_id, heat_efficiency, reaction_rate_mod, note, created_at
		 FROM params_versions WHERE version_id = ?`, id,
	).Scan(&rec.VersionID, &parentID, &rec.HeatEfficiency, &rec.ReactionRateModifier, &note, &createdStr)
	if err != nil {
		return Record{}, fmt.Errorf("get version %s: %w", id, err)
	}

	if parentID.Valid {
		rec.ParentID = parentID.String
	}
	if note.Valid {
		rec.Note = note.String
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return rec, nil
}

// #endregion get

// #region commit

// Commit inserts a new version and swaps the active pointer atomically.
// Readers see either the old or the new complete version, never a mix.
func (s *Store) Commit(rec Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var parentPtr interface{}
	if rec.ParentID != "" {
		parentPtr = rec.ParentID
	}
	var notePtr interface{}
	if rec.Note != "" {
		notePtr = rec.Note
	}

	_, err = tx.Exec(
		`INSERT INTO params_versions (version_id, parent_id, heat_efficiency, reaction_rate_mod, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.VersionID, parentPtr, rec.HeatEfficiency, rec.ReactionRateModifier, notePtr,
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert version: %w", err)
	}

	_, err = tx.Exec(`UPDATE active_params SET version_id = ? WHERE id = 1`, rec.VersionID)
	if err != nil {
		return fmt.Errorf("update active: %w", err)
	}

	return tx.Commit()
}

// #endregion commit

// #region rollback

// Rollback points the active version at an earlier one.
func (s *Store) Rollback(targetVersionID string) error {
	var exists int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM params_versions WHERE version_id = ?`, targetVersionID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check version: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("version %s not found", targetVersionID)
	}

	_, err = s.db.Exec(`UPDATE active_params SET version_id = ? WHERE id = 1`, targetVersionID)
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// #endregion rollback

// #region list

// ListVersions returns the most recent parameter versions.
func (s *Store) ListVersions(limit int) ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT version_id, parent_id, heat_efficiency, reaction_rate_mod, note, created_at
		 FROM params_versions ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var parentID, note sql.NullString
		var createdStr string
		if err := rows.Scan(&rec.VersionID, &parentID, &rec.HeatEfficiency, &rec.ReactionRateModifier, &note, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if parentID.Valid {
			rec.ParentID = parentID.String
		}
		if note.Valid {
			rec.Note = note.String
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// #endregion list
