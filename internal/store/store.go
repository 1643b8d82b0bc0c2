package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store persists scan runs in the workspace database.
type Store struct {
	DB  *sql.DB
	Now func() time.Time
}

var ErrNotFound = errors.New("not found")

// Run is one persisted detection run.
type Run struct {
	ID            string          `json:"id"`
	CreatedAt     string          `json:"created_at"`
	Source        string          `json:"source,omitempty"`
	Collection    string          `json:"collection,omitempty"`
	PlaybookTotal int             `json:"playbook_total"`
	PlaybookRisk  int             `json:"playbook_risk"`
	RoleTotal     int             `json:"role_total"`
	RoleRisk      int             `json:"role_risk"`
	Report        json.RawMessage `json:"report,omitempty"`
	Narrative     string          `json:"narrative,omitempty"`
}

func (s Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// SaveRun inserts a run, assigning an id and timestamp when absent.
func (s Store) SaveRun(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt == "" {
		run.CreatedAt = s.now().UTC().Format(time.RFC3339)
	}
	if run.Report == nil {
		run.Report = json.RawMessage("{}")
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO runs(id,created_at,source,collection,playbook_total,playbook_risk,role_total,role_risk,report_json,narrative) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.CreatedAt, nullable(run.Source), nullable(run.Collection),
		run.PlaybookTotal, run.PlaybookRisk, run.RoleTotal, run.RoleRisk,
		string(run.Report), run.Narrative)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// GetRun fetches one run with its full report and narrative.
func (s Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT id,created_at,COALESCE(source,''),COALESCE(collection,''),playbook_total,playbook_risk,role_total,role_risk,report_json,narrative FROM runs WHERE id=?`, id)
	var run Run
	var reportJSON string
	err := row.Scan(&run.ID, &run.CreatedAt, &run.Source, &run.Collection,
		&run.PlaybookTotal, &run.PlaybookRisk, &run.RoleTotal, &run.RoleRisk,
		&reportJSON, &run.Narrative)
	if err == sql.ErrNoRows {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, err
	}
	run.Report = json.RawMessage(reportJSON)
	return run, nil
}

// ListRuns returns the newest runs without their report bodies.
func (s Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id,created_at,COALESCE(source,''),COALESCE(collection,''),playbook_total,playbook_risk,role_total,role_risk FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.CreatedAt, &run.Source, &run.Collection,
			&run.PlaybookTotal, &run.PlaybookRisk, &run.RoleTotal, &run.RoleRisk); err != nil {
			return nil, err
		}
		res = append(res, run)
	}
	return res, rows.Err()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
