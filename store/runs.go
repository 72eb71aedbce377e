package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/slotgrid/errors"
	"github.com/teranos/slotgrid/grid"
	"github.com/teranos/slotgrid/schedule"
	"github.com/teranos/slotgrid/solver"
)

// Run is one recorded solve
type Run struct {
	ID          string                `json:"id" yaml:"id" toml:"id"`
	CreatedAt   time.Time             `json:"created_at" yaml:"created_at" toml:"created_at"`
	Source      string                `json:"source" yaml:"source" toml:"source"` // configuration file, or "-"
	Backend     string                `json:"backend" yaml:"backend" toml:"backend"`
	Status      solver.Status         `json:"status" yaml:"status" toml:"status"`
	Layout      grid.Layout           `json:"layout" yaml:"layout" toml:"layout"`
	Resources   int                   `json:"resources" yaml:"resources" toml:"resources"`
	Rules       int                   `json:"rules" yaml:"rules" toml:"rules"`
	Variables   int                   `json:"variables" yaml:"variables" toml:"variables"`
	Constraints int                   `json:"constraints" yaml:"constraints" toml:"constraints"`
	Conflicts   int64                 `json:"conflicts" yaml:"conflicts" toml:"conflicts"`
	Branches    int64                 `json:"branches" yaml:"branches" toml:"branches"`
	WallTime    time.Duration         `json:"wall_time" yaml:"wall_time" toml:"wall_time"`
	Assignments []schedule.Assignment `json:"assignments" yaml:"assignments" toml:"assignments"`
}

// NewRun describes sol as a run read from source and solved by backend
func NewRun(sol *schedule.Solution, source, backend string, resources int) Run {
	return Run{
		ID:          sol.RunID,
		CreatedAt:   time.Now().UTC(),
		Source:      source,
		Backend:     backend,
		Status:      sol.Status,
		Layout:      sol.Layout,
		Resources:   resources,
		Rules:       sol.Build.Rules,
		Variables:   sol.Build.Variables,
		Constraints: sol.Build.Constraints,
		Conflicts:   sol.Stats.Conflicts,
		Branches:    sol.Stats.Branches,
		WallTime:    sol.Stats.WallTime,
		Assignments: sol.Assignments,
	}
}

// Solution rebuilds the solve outcome of the run
func (r Run) Solution() *schedule.Solution {
	return &schedule.Solution{
		RunID:       r.ID,
		Status:      r.Status,
		Layout:      r.Layout,
		Assignments: r.Assignments,
		Stats:       solver.Stats{Conflicts: r.Conflicts, Branches: r.Branches, WallTime: r.WallTime},
		Build:       schedule.BuildStats{Rules: r.Rules, Variables: r.Variables, Constraints: r.Constraints},
	}
}

// RunStore reads and writes runs
type RunStore struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

// NewRunStore wraps a migrated database. log may be nil.
func NewRunStore(db *sql.DB, log *zap.SugaredLogger) *RunStore {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &RunStore{db: db, log: log}
}

const runColumns = `id, created_at, source, backend, status, pipelines, phases, rounds,
	resources, rules, variables, constraints, conflicts, branches, wall_time_ms, assignments`

// Record inserts run
func (s *RunStore) Record(ctx context.Context, run Run) error {
	assignments, err := json.Marshal(run.Assignments)
	if err != nil {
		return errors.Wrap(err, "encode assignments")
	}
	if run.Assignments == nil {
		assignments = []byte("[]")
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt, run.Source, run.Backend, run.Status.String(),
		run.Layout.Pipelines, run.Layout.Phases, run.Layout.Rounds,
		run.Resources, run.Rules, run.Variables, run.Constraints,
		run.Conflicts, run.Branches, run.WallTime.Milliseconds(), string(assignments),
	)
	if err != nil {
		return errors.Wrapf(err, "insert run %s", run.ID)
	}
	s.log.Debugw("Run recorded", "run_id", run.ID, "status", run.Status.String())
	return nil
}

// List returns the most recent runs first, without assignments. A limit
// of 0 or less returns every run.
func (s *RunStore) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		run.Assignments = nil
		runs = append(runs, run)
	}
	return runs, errors.Wrap(rows.Err(), "list runs")
}

// Get returns the run whose ID is id, or starts with id when id is a
// unique prefix
func (s *RunStore) Get(ctx context.Context, id string) (Run, error) {
	if id == "" {
		return Run{}, errors.Wrap(ErrRunNotFound, "empty run id")
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ? OR id LIKE ? || '%' ORDER BY id LIMIT 2`, id, id)
	if err != nil {
		return Run{}, errors.Wrapf(err, "get run %s", id)
	}
	defer rows.Close()

	var found []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return Run{}, err
		}
		if run.ID == id {
			return run, nil
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return Run{}, errors.Wrapf(err, "get run %s", id)
	}

	switch len(found) {
	case 0:
		return Run{}, errors.Wrapf(ErrRunNotFound, "%s", id)
	case 1:
		return found[0], nil
	default:
		return Run{}, errors.WithHint(errors.Wrapf(ErrAmbiguousID, "%s", id), "give more characters of the run id")
	}
}

// Prune deletes all but the keep most recent runs and reports how many it
// deleted
func (s *RunStore) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		return 0, errors.Newf("keep must be >= 0, got %d", keep)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id NOT IN (
		SELECT id FROM runs ORDER BY created_at DESC, id LIMIT ?)`, keep)
	if err != nil {
		return 0, errors.Wrap(err, "prune runs")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "prune runs")
	}
	if n > 0 {
		s.log.Infow("Pruned runs", "deleted", n, "kept", keep)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run         Run
		status      string
		wallMS      int64
		assignments string
	)
	err := row.Scan(&run.ID, &run.CreatedAt, &run.Source, &run.Backend, &status,
		&run.Layout.Pipelines, &run.Layout.Phases, &run.Layout.Rounds,
		&run.Resources, &run.Rules, &run.Variables, &run.Constraints,
		&run.Conflicts, &run.Branches, &wallMS, &assignments)
	if err != nil {
		return Run{}, errors.Wrap(err, "scan run")
	}
	if err := run.Status.UnmarshalText([]byte(status)); err != nil {
		return Run{}, errors.Wrapf(err, "run %s", run.ID)
	}
	run.WallTime = time.Duration(wallMS) * time.Millisecond
	if err := json.Unmarshal([]byte(assignments), &run.Assignments); err != nil {
		return Run{}, errors.Wrapf(err, "decode assignments of run %s", run.ID)
	}
	return run, nil
}
