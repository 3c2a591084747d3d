package store

import (
	"database/sql"
	"time"
)

// HookRun records the outcome of one arrival hook for a visit.
type HookRun struct {
	ID         int64     `json:"id"`
	VisitID    string    `json:"visit_id"`
	PluginName string    `json:"plugin_name"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// HookRunRepository stores hook outcomes.
type HookRunRepository struct {
	db *sql.DB
}

// HookRuns returns the hook run repository for this store.
func (s *Store) HookRuns() *HookRunRepository {
	return &HookRunRepository{db: s.db}
}

// Create inserts a hook run. The visit must exist.
func (r *HookRunRepository) Create(h *HookRun) error {
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now()
	}

	result, err := r.db.Exec(
		`INSERT INTO hook_runs (visit_id, plugin_name, success, error, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		h.VisitID, h.PluginName, boolToInt(h.Success), h.Error, h.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = id
	return nil
}

// ListByVisit returns the hook runs for a visit in insertion order.
func (r *HookRunRepository) ListByVisit(visitID string) ([]*HookRun, error) {
	rows, err := r.db.Query(
		`SELECT id, visit_id, plugin_name, success, error, created_at
		 FROM hook_runs WHERE visit_id = ? ORDER BY id ASC`,
		visitID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*HookRun
	for rows.Next() {
		h := &HookRun{}
		var success int

		if err := rows.Scan(&h.ID, &h.VisitID, &h.PluginName, &success, &h.Error, &h.CreatedAt); err != nil {
			return nil, err
		}

		h.Success = success != 0
		runs = append(runs, h)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}
