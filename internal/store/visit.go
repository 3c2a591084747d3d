package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Visit is one arrival in front of the kiosk.
type Visit struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Known    bool      `json:"known"`
	Distance float64   `json:"distance"`
	SeenAt   time.Time `json:"seen_at"`
}

// VisitCount is the number of visits for one name.
type VisitCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// VisitRepository provides access to the visit log.
type VisitRepository struct {
	db *sql.DB
}

// Visits returns the visit repository for this store.
func (s *Store) Visits() *VisitRepository {
	return &VisitRepository{db: s.db}
}

// Create inserts a visit. ID and SeenAt are filled in when empty.
func (r *VisitRepository) Create(v *Visit) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	if v.SeenAt.IsZero() {
		v.SeenAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO visits (id, name, known, distance, seen_at) VALUES (?, ?, ?, ?, ?)`,
		v.ID, v.Name, boolToInt(v.Known), v.Distance, v.SeenAt,
	)
	return err
}

// GetByID retrieves a visit by its ID.
func (r *VisitRepository) GetByID(id string) (*Visit, error) {
	v := &Visit{}
	var known int

	err := r.db.QueryRow(
		`SELECT id, name, known, distance, seen_at FROM visits WHERE id = ?`,
		id,
	).Scan(&v.ID, &v.Name, &known, &v.Distance, &v.SeenAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	v.Known = known != 0
	return v, nil
}

// List returns the most recent visits, newest first. A non-positive limit
// returns every visit.
func (r *VisitRepository) List(limit int) ([]*Visit, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(
		`SELECT id, name, known, distance, seen_at
		 FROM visits ORDER BY seen_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visits []*Visit
	for rows.Next() {
		v := &Visit{}
		var known int

		if err := rows.Scan(&v.ID, &v.Name, &known, &v.Distance, &v.SeenAt); err != nil {
			return nil, err
		}

		v.Known = known != 0
		visits = append(visits, v)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return visits, nil
}

// CountByName returns visit counts per name, most frequent first.
func (r *VisitRepository) CountByName() ([]VisitCount, error) {
	rows, err := r.db.Query(
		`SELECT name, COUNT(*) AS n FROM visits GROUP BY name ORDER BY n DESC, name ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []VisitCount
	for rows.Next() {
		var c VisitCount
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}

// DeleteBefore removes visits older than cutoff and returns how many went.
func (r *VisitRepository) DeleteBefore(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM visits WHERE seen_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
