// Package schedule lowers a job and its rules into a constraint model and
// reads the solution back.
//
// Every resource gets one slot variable over [1, pipelines·phases·rounds].
// Resource slots are pairwise distinct. Each group may place at most
// max_allowed_resource_per_round of its members in any one round. Each
// rule is expanded over every (target, counterpart) pair; rules against
// PHASE_n, PIPELINE_n or ROUND_n compare a derived coordinate of the
// target's slot with n-1.
package schedule

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/slotgrid/errors"
	"github.com/teranos/slotgrid/grid"
	"github.com/teranos/slotgrid/job"
	"github.com/teranos/slotgrid/logger"
	"github.com/teranos/slotgrid/rules"
	"github.com/teranos/slotgrid/solver"
)

// JobSolver owns the model of one job. It is not safe for concurrent use;
// solve several jobs with several JobSolvers.
type JobSolver struct {
	cfg         job.Configuration
	layout      grid.Layout
	model       solver.Model
	comparisons []rules.Comparison
	log         *zap.SugaredLogger

	built      bool
	resources  []solver.IntVar             // resources[r-1] is the slot of resource r
	rounds     map[int][]solver.BoolVar    // per resource, one indicator per round
	coords     map[coordKey]solver.IntVar  // derived coordinates, per resource and axis
	buildStats BuildStats
}

type coordKey struct {
	resource int
	axis     grid.Axis
}

// BuildStats summarises a built model
type BuildStats struct {
	Rules           int           `json:"rules" yaml:"rules" toml:"rules"`
	RuleConstraints int           `json:"rule_constraints" yaml:"rule_constraints" toml:"rule_constraints"`
	Variables       int           `json:"variables" yaml:"variables" toml:"variables"`
	Constraints     int           `json:"constraints" yaml:"constraints" toml:"constraints"`
	Duration        time.Duration `json:"duration" yaml:"duration" toml:"duration"`
}

// Option configures a JobSolver
type Option func(*JobSolver)

// WithLogger sets the logger, defaulting to the "schedule" component logger
func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *JobSolver) {
		s.log = log
	}
}

// NewJobSolver validates cfg, parses its rules and checks every reference
// against the configured counts. Nothing is posted to model until Build.
//
// Errors, in the order they are checked: *job.ConfigurationError,
// *rules.LexError or *rules.ParseError, *InvalidReferenceError.
func NewJobSolver(cfg job.Configuration, model solver.Model, opts ...Option) (*JobSolver, error) {
	s := &JobSolver{
		cfg:    cfg,
		layout: cfg.Layout(),
		model:  model,
		rounds: make(map[int][]solver.BoolVar),
		coords: make(map[coordKey]solver.IntVar),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.ComponentLogger("schedule")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.RuleCount > 0 {
		comparisons, err := rules.NewParser().Parse(cfg.Rules)
		if err != nil {
			return nil, err
		}
		s.comparisons = comparisons
		if len(comparisons) != cfg.RuleCount {
			s.log.Warnw("rule_count does not match parsed rules",
				"rule_count", cfg.RuleCount,
				logger.FieldRules, len(comparisons))
		}
	} else if cfg.Rules != "" {
		s.log.Warnw("rules ignored because rule_count is 0")
	}

	if err := s.checkReferences(); err != nil {
		return nil, err
	}
	return s, nil
}

// Comparisons returns the parsed rules
func (s *JobSolver) Comparisons() []rules.Comparison {
	return s.comparisons
}

// Layout returns the grid shape
func (s *JobSolver) Layout() grid.Layout {
	return s.layout
}

// BuildStats returns the statistics of the last Build
func (s *JobSolver) BuildStats() BuildStats {
	return s.buildStats
}

// checkReferences runs before any variable exists
func (s *JobSolver) checkReferences() error {
	for i, c := range s.comparisons {
		for _, e := range []rules.Entity{c.Left, c.Right} {
			var bound int
			switch e.Kind {
			case rules.KindResource:
				bound = s.cfg.ResourceCount
			case rules.KindGroup:
				bound = s.cfg.GroupCount
			case rules.KindPhase, rules.KindPipeline, rules.KindRound:
				if extent := s.layout.Extent(axisOf(e.Kind)); e.Value < 1 || e.Value > extent {
					s.log.Warnw("rule can never hold",
						"rule", c.String(),
						"reason", fmt.Sprintf("%s outside 1..%d", e, extent))
				}
				continue
			case rules.KindNumber:
				continue
			default:
				return errors.AssertionFailedf("unhandled entity kind %s", e.Kind)
			}
			if e.Value < 1 || e.Value > bound {
				return &InvalidReferenceError{Entity: e, Bound: bound, Index: i, Comparison: c}
			}
		}
	}
	return nil
}

// Build posts every variable and constraint to the model. It may be called
// once.
func (s *JobSolver) Build() error {
	if s.built {
		return errors.New("model already built")
	}
	s.built = true
	start := time.Now()

	size := int64(s.layout.Size())
	s.resources = make([]solver.IntVar, s.cfg.ResourceCount)
	for r := 1; r <= s.cfg.ResourceCount; r++ {
		s.resources[r-1] = s.model.NewIntVar(1, size, fmt.Sprintf("R%d", r))
	}
	if err := s.model.AllDifferent(s.resources...); err != nil {
		return errors.Wrap(err, "posting distinct slots")
	}

	if err := s.buildGroupLoad(); err != nil {
		return err
	}

	posted := 0
	for i, c := range s.comparisons {
		n, err := s.buildRule(c)
		if err != nil {
			return errors.Wrapf(err, "rule %d (%s)", i+1, c)
		}
		posted += n
	}

	vars, constraints := s.model.Size()
	s.buildStats = BuildStats{
		Rules:           len(s.comparisons),
		RuleConstraints: posted,
		Variables:       vars,
		Constraints:     constraints,
		Duration:        time.Since(start),
	}
	s.log.Infow("model built",
		logger.FieldResources, s.cfg.ResourceCount,
		logger.FieldSlots, size,
		logger.FieldGroups, s.cfg.GroupCount,
		logger.FieldRules, len(s.comparisons),
		logger.FieldVariables, vars,
		logger.FieldConstraints, constraints,
		logger.FieldDurationMS, s.buildStats.Duration.Milliseconds())
	return nil
}

// buildGroupLoad caps, for every group and round, the number of members
// placed in the round
func (s *JobSolver) buildGroupLoad() error {
	if s.cfg.GroupCount == 0 {
		return nil
	}
	limit := int64(s.cfg.MaxPerRound())
	for g := 1; g <= s.cfg.GroupCount; g++ {
		members := s.cfg.Members(g)
		for round := 0; round < s.layout.Rounds; round++ {
			inRound := make([]solver.BoolVar, 0, len(members))
			for _, r := range members {
				inds, err := s.roundIndicators(r)
				if err != nil {
					return err
				}
				inRound = append(inRound, inds[round])
			}
			load := solver.Linear{Expr: solver.SumBools(inRound...), Op: solver.OpLE, RHS: limit}
			if err := s.model.AddLinear(load); err != nil {
				return errors.Wrapf(err, "group %d round %d load", g, round+1)
			}
		}
	}
	return nil
}

// roundIndicators returns one boolean per round that is true exactly when
// resource r sits in that round. Each indicator implies the slot lies in
// its round span, and exactly one indicator is true; since the spans
// partition the slot domain, the true indicator is the slot's round.
func (s *JobSolver) roundIndicators(r int) ([]solver.BoolVar, error) {
	if inds, ok := s.rounds[r]; ok {
		return inds, nil
	}
	x := s.resources[r-1]
	inds := make([]solver.BoolVar, s.layout.Rounds)
	for round := range inds {
		b := s.model.NewBoolVar(fmt.Sprintf("R%d.in_round%d", r, round+1))
		lo, hi := s.layout.RoundSpan(round)
		if err := s.model.AddConditional(solver.Linear{Expr: solver.VarExpr(x), Op: solver.OpGE, RHS: int64(lo)}, b); err != nil {
			return nil, err
		}
		if err := s.model.AddConditional(solver.Linear{Expr: solver.VarExpr(x), Op: solver.OpLE, RHS: int64(hi)}, b); err != nil {
			return nil, err
		}
		inds[round] = b
	}
	one := solver.Linear{Expr: solver.SumBools(inds...), Op: solver.OpEQ, RHS: 1}
	if err := s.model.AddLinear(one); err != nil {
		return nil, err
	}
	s.rounds[r] = inds
	return inds, nil
}

// buildRule posts one constraint per (target, counterpart) pair and
// returns how many it posted
func (s *JobSolver) buildRule(c rules.Comparison) (int, error) {
	op := solverOp(c.Op)
	targets := s.resolve(c.Left)
	posted := 0

	switch c.Right.Kind {
	case rules.KindNumber:
		for _, t := range targets {
			lin := solver.Linear{Expr: solver.VarExpr(s.resources[t-1]), Op: op, RHS: int64(c.Right.Value)}
			if err := s.model.AddLinear(lin); err != nil {
				return posted, err
			}
			posted++
		}
	case rules.KindResource, rules.KindGroup:
		counterparts := s.resolve(c.Right)
		for _, t := range targets {
			for _, u := range counterparts {
				lin := solver.Compare(solver.VarExpr(s.resources[t-1]), op, solver.VarExpr(s.resources[u-1]))
				if err := s.model.AddLinear(lin); err != nil {
					return posted, err
				}
				posted++
			}
		}
	case rules.KindPhase, rules.KindPipeline, rules.KindRound:
		axis := axisOf(c.Right.Kind)
		for _, t := range targets {
			coord, err := s.coordinate(t, axis)
			if err != nil {
				return posted, err
			}
			lin := solver.Linear{Expr: solver.VarExpr(coord), Op: op, RHS: int64(c.Right.Value - 1)}
			if err := s.model.AddLinear(lin); err != nil {
				return posted, err
			}
			posted++
		}
	default:
		return posted, errors.AssertionFailedf("unhandled entity kind %s", c.Right.Kind)
	}
	return posted, nil
}

// coordinate returns a variable equal to the axis coordinate of resource
// t's slot, creating the auxiliary variables on first use
func (s *JobSolver) coordinate(t int, axis grid.Axis) (solver.IntVar, error) {
	key := coordKey{resource: t, axis: axis}
	if v, ok := s.coords[key]; ok {
		return v, nil
	}

	x := s.resources[t-1]
	d := s.layout.Derive(axis)
	offset := solver.Affine(x, 1, -1) // 0-based slot
	name := fmt.Sprintf("R%d.%s", t, axis)
	coord := s.model.NewIntVar(0, int64(s.layout.Extent(axis)-1), name)

	var err error
	switch {
	case d.Modulus == 0:
		err = s.model.AddDivisionEquality(coord, offset, int64(d.Divisor))
	case d.Divisor == 1:
		err = s.model.AddModuloEquality(coord, offset, int64(d.Modulus))
	default:
		q := s.model.NewIntVar(0, int64((s.layout.Size()-1)/d.Divisor), name+".div")
		if err = s.model.AddDivisionEquality(q, offset, int64(d.Divisor)); err == nil {
			err = s.model.AddModuloEquality(coord, solver.VarExpr(q), int64(d.Modulus))
		}
	}
	if err != nil {
		return solver.IntVar{}, errors.Wrapf(err, "deriving %s of resource %d", axis, t)
	}
	s.coords[key] = coord
	return coord, nil
}

// resolve returns the resource indices an entity stands for
func (s *JobSolver) resolve(e rules.Entity) []int {
	if e.Kind == rules.KindGroup {
		return s.cfg.Members(e.Value)
	}
	return []int{e.Value}
}

// Solve builds the model if needed and runs the backend. An infeasible
// model is a normal result, not an error.
func (s *JobSolver) Solve(ctx context.Context, opts solver.SolveOptions) (*Solution, error) {
	if !s.built {
		if err := s.Build(); err != nil {
			return nil, err
		}
	}
	if opts.Logger == nil {
		opts.Logger = s.log
	}

	res, err := s.model.Solve(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "solving")
	}

	sol := newSolution(s.layout, res, s.buildStats)
	if res.Status.HasSolution() {
		for r, x := range s.resources {
			slot := int(res.Value(x))
			coord, err := s.layout.Decompose(slot)
			if err != nil {
				return nil, errors.AssertionFailedf("backend assigned R%d slot %d outside the grid", r+1, slot)
			}
			sol.Assignments = append(sol.Assignments, Assignment{Resource: r + 1, Slot: slot, Coord: coord})
		}
	}
	s.log.Infow("solve finished",
		logger.FieldStatus, res.Status.String(),
		"conflicts", res.Stats.Conflicts,
		"branches", res.Stats.Branches,
		logger.FieldDurationMS, res.Stats.WallTime.Milliseconds())
	return sol, nil
}

func axisOf(k rules.Kind) grid.Axis {
	switch k {
	case rules.KindPhase:
		return grid.AxisPhase
	case rules.KindPipeline:
		return grid.AxisPipeline
	case rules.KindRound:
		return grid.AxisRound
	default:
		panic(fmt.Sprintf("schedule: %s is not a grid axis", k))
	}
}

func solverOp(op rules.Operator) solver.Op {
	switch op {
	case rules.OpEQ:
		return solver.OpEQ
	case rules.OpNEQ:
		return solver.OpNEQ
	case rules.OpGT:
		return solver.OpGT
	case rules.OpLT:
		return solver.OpLT
	case rules.OpGE:
		return solver.OpGE
	case rules.OpLE:
		return solver.OpLE
	default:
		panic(fmt.Sprintf("schedule: unknown operator %d", op))
	}
}
