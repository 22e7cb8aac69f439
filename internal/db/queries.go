package db

import (
	"database/sql"
)

// Entry is one row of memory_entries. The pre-compaction pipeline writes
// rows with role "session_summary".
type Entry struct {
	ID        string  `json:"id"`
	SessionID string  `json:"session_id"`
	Role      string  `json:"role"`
	Content   string  `json:"content"`
	CreatedAt int64   `json:"created_at"`
	ProjectID *string `json:"project_id,omitempty"`
}

// Fact is one row of memory_facts: a key/value record tagged with a type
// and category for later retrieval.
type Fact struct {
	ID        string  `json:"id"`
	FactType  string  `json:"fact_type"`
	Key       string  `json:"key"`
	Value     string  `json:"value"`
	Category  string  `json:"category"`
	Source    string  `json:"source"`
	CreatedAt int64   `json:"created_at"`
	UpdatedAt int64   `json:"updated_at"`
	ProjectID *string `json:"project_id,omitempty"`
}

// LookupProjectID returns the id of the project registered at path, or nil
// if no such project exists.
func LookupProjectID(database *sql.DB, path string) (*string, error) {
	var id string
	err := database.QueryRow("SELECT id FROM projects WHERE path = ?", path).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// InsertProject registers a project. Used by tests and setup tooling; the
// hook itself only reads the table.
func InsertProject(database *sql.DB, id, path, name string, createdAt int64) error {
	_, err := database.Exec(
		"INSERT INTO projects (id, path, name, created_at) VALUES (?, ?, ?, ?)",
		id, path, name, createdAt,
	)
	return err
}

// InsertEntry inserts one memory entry within tx.
func InsertEntry(tx *sql.Tx, e Entry) error {
	_, err := tx.Exec(`
		INSERT INTO memory_entries (id, session_id, role, content, created_at, project_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, e.Role, e.Content, e.CreatedAt, toNullString(e.ProjectID),
	)
	return err
}

// UpsertFact inserts a fact within tx, replacing value and updated_at when a
// fact with the same id already exists.
func UpsertFact(tx *sql.Tx, f Fact) error {
	_, err := tx.Exec(`
		INSERT INTO memory_facts (id, fact_type, key, value, category, source, created_at, updated_at, project_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			fact_type = excluded.fact_type,
			key = excluded.key,
			value = excluded.value,
			category = excluded.category,
			source = excluded.source,
			updated_at = excluded.updated_at,
			project_id = excluded.project_id`,
		f.ID, f.FactType, f.Key, f.Value, f.Category, f.Source, f.CreatedAt, f.UpdatedAt, toNullString(f.ProjectID),
	)
	return err
}

// RecentEntries returns the most recent entries with the given role, newest
// first.
func RecentEntries(database *sql.DB, role string, limit int) ([]Entry, error) {
	rows, err := database.Query(`
		SELECT id, session_id, role, content, created_at, project_id
		FROM memory_entries
		WHERE role = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		role, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		var projectID sql.NullString
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Role, &e.Content, &e.CreatedAt, &projectID); err != nil {
			return nil, err
		}
		if projectID.Valid {
			e.ProjectID = &projectID.String
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetFactByID returns one fact, or nil if absent.
func GetFactByID(database *sql.DB, id string) (*Fact, error) {
	var f Fact
	var category, source, projectID sql.NullString
	err := database.QueryRow(`
		SELECT id, fact_type, key, value, category, source, created_at, updated_at, project_id
		FROM memory_facts WHERE id = ?`,
		id,
	).Scan(&f.ID, &f.FactType, &f.Key, &f.Value, &category, &source, &f.CreatedAt, &f.UpdatedAt, &projectID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	f.Category = category.String
	f.Source = source.String
	if projectID.Valid {
		f.ProjectID = &projectID.String
	}
	return &f, nil
}

// CountFactsByCategory returns the number of facts in a category.
func CountFactsByCategory(database *sql.DB, category string) (int, error) {
	var n int
	err := database.QueryRow("SELECT COUNT(*) FROM memory_facts WHERE category = ?", category).Scan(&n)
	return n, err
}

func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
