package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vtxworks/converter-twin/internal/heat"
	"github.com/vtxworks/converter-twin/internal/melt"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS heats (
	heat_id         TEXT PRIMARY KEY,
	status          TEXT NOT NULL,
	one_can         INTEGER NOT NULL,
	recipe_json     TEXT NOT NULL,
	trajectory_json TEXT,
	predicted_json  TEXT,
	measured_json   TEXT,
	findings_json   TEXT,
	created_at      TEXT NOT NULL,
	sealed_at       TEXT
);

CREATE TABLE IF NOT EXISTS advisory_log (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	heat_id    TEXT NOT NULL,
	kind       TEXT NOT NULL,
	message    TEXT NOT NULL,
	created_at TEXT NOT NULL
);
`

// #endregion schema

// #region store

// Store persists sealed heats and their advisories. Records handed here are
// historical: write once, query thereafter.
type Store struct {
	db *sql.DB
}

// NewStore opens the history database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion store

// #region save

// SaveHeat writes a sealed (or learned) batch as an immutable record.
func (s *Store) SaveHeat(b *heat.Batch) error {
	if b.Status != heat.StatusSealed && b.Status != heat.StatusLearned {
		return fmt.Errorf("heat %s is %s, only sealed heats are archived", b.ID, b.Status)
	}

	recipeJSON, err := json.Marshal(b.Recipe)
	if err != nil {
		return fmt.Errorf("marshal recipe: %w", err)
	}
	trajJSON, err := json.Marshal(b.Trajectory)
	if err != nil {
		return fmt.Errorf("marshal trajectory: %w", err)
	}

	predJSON := marshalOrNil(b.Predicted)
	measJSON := marshalOrNil(b.Measured)

	var findingsPtr interface{}
	if len(b.Findings) > 0 {
		fj, err := json.Marshal(b.Findings)
		if err != nil {
			return fmt.Errorf("marshal findings: %w", err)
		}
		findingsPtr = string(fj)
	}

	oneCan := 0
	if b.OneCan {
		oneCan = 1
	}

	_, err = s.db.Exec(
		`INSERT INTO heats (heat_id, status, one_can, recipe_json, trajectory_json, predicted_json, measured_json, findings_json, created_at, sealed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(heat_id) DO UPDATE SET
		   status = excluded.status,
		   findings_json = excluded.findings_json,
		   measured_json = excluded.measured_json`,
		b.ID, string(b.Status), oneCan, string(recipeJSON), string(trajJSON),
		predJSON, measJSON, findingsPtr,
		b.CreatedAt.Format(time.RFC3339Nano), b.SealedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert heat: %w", err)
	}
	return nil
}

func marshalOrNil(o *heat.Outcome) interface{} {
	if o == nil {
		return nil
	}
	j, err := json.Marshal(o)
	if err != nil {
		return nil
	}
	return string(j)
}

// #endregion save

// #region query

// HeatRecord is a stored heat as read back from the database.
type HeatRecord struct {
	HeatID     string
	Status     string
	OneCan     bool
	Recipe     heat.Recipe
	Trajectory melt.Trajectory
	Predicted  *heat.Outcome
	Measured   *heat.Outcome
	Findings   []string
	CreatedAt  time.Time
	SealedAt   time.Time
}

// GetHeat reads one heat record by ID.
func (s *Store) GetHeat(heatID string) (HeatRecord, error) {
	row := s.db.QueryRow(
		`SELECT heat_id, status, one_can, recipe_json, trajectory_json, predicted_json, measured_json, findings_json, created_at, sealed_at
		 FROM heats WHERE heat_id = ?`, heatID,
	)
	return scanHeat(row.Scan)
}

// ListHeats returns the most recent heats.
func (s *Store) ListHeats(limit int) ([]HeatRecord, error) {
	rows, err := s.db.Query(
		`SELECT heat_id, status, one_can, recipe_json, trajectory_json, predicted_json, measured_json, findings_json, created_at, sealed_at
		 FROM heats ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list heats: %w", err)
	}
	defer rows.Close()

	var records []HeatRecord
	for rows.Next() {
		rec, err := scanHeat(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanHeat(scan func(dest ...interface{}) error) (HeatRecord, error) {
	var rec HeatRecord
	var oneCan int
	var recipeJSON string
	var trajJSON, predJSON, measJSON, findingsJSON, sealedStr sql.NullString
	var createdStr string

	err := scan(&rec.HeatID, &rec.Status, &oneCan, &recipeJSON, &trajJSON, &predJSON, &measJSON, &findingsJSON, &createdStr, &sealedStr)
	if err != nil {
		return HeatRecord{}, fmt.Errorf("scan heat: %w", err)
	}

	rec.OneCan = oneCan != 0
	if err := json.Unmarshal([]byte(recipeJSON), &rec.Recipe); err != nil {
		return HeatRecord{}, fmt.Errorf("unmarshal recipe: %w", err)
	}
	if trajJSON.Valid {
		if err := json.Unmarshal([]byte(trajJSON.String), &rec.Trajectory); err != nil {
			return HeatRecord{}, fmt.Errorf("unmarshal trajectory: %w", err)
		}
	}
	if predJSON.Valid {
		var o heat.Outcome
		if err := json.Unmarshal([]byte(predJSON.String), &o); err == nil {
			rec.Predicted = &o
		}
	}
	if measJSON.Valid {
		var o heat.Outcome
		if err := json.Unmarshal([]byte(measJSON.String), &o); err == nil {
			rec.Measured = &o
		}
	}
	if findingsJSON.Valid {
		_ = json.Unmarshal([]byte(findingsJSON.String), &rec.Findings)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	if sealedStr.Valid {
		rec.SealedAt, _ = time.Parse(time.RFC3339Nano, sealedStr.String)
	}
	return rec, nil
}

// #endregion query

// #region advisory-log

// AdvisoryEntry is one logged advisory or learning decision for a heat.
type AdvisoryEntry struct {
	HeatID    string
	Kind      string // "critical_temp" | "learning" | "diagnosis"
	Message   string
	CreatedAt time.Time
}

// LogAdvisory appends an advisory entry.
func (s *Store) LogAdvisory(entry AdvisoryEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO advisory_log (heat_id, kind, message, created_at) VALUES (?, ?, ?, ?)`,
		entry.HeatID, entry.Kind, entry.Message, entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log advisory: %w", err)
	}
	return nil
}

// ListAdvisories returns the advisories for one heat, oldest first.
func (s *Store) ListAdvisories(heatID string) ([]AdvisoryEntry, error) {
	rows, err := s.db.Query(
		`SELECT heat_id, kind, message, created_at FROM advisory_log WHERE heat_id = ? ORDER BY id ASC`, heatID,
	)
	if err != nil {
		return nil, fmt.Errorf("list advisories: %w", err)
	}
	defer rows.Close()

	var entries []AdvisoryEntry
	for rows.Next() {
		var e AdvisoryEntry
		var createdStr string
		if err := rows.Scan(&e.HeatID, &e.Kind, &e.Message, &createdStr); err != nil {
			return nil, fmt.Errorf("scan advisory: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion advisory-log
