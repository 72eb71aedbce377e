package schedule

import (
	"fmt"
	"sort"

	"github.com/teranos/slotgrid/grid"
	"github.com/teranos/slotgrid/job"
	"github.com/teranos/slotgrid/rules"
)

// Violation is one property an assignment breaks
type Violation struct {
	Property string `json:"property" yaml:"property" toml:"property"` // domain, distinct, rule, group_load
	Detail   string `json:"detail" yaml:"detail" toml:"detail"`
}

func (v Violation) String() string {
	return v.Property + ": " + v.Detail
}

// Verify checks slots (resource index to slot) against cfg and
// comparisons without a solver: every resource has a slot inside the grid,
// slots are distinct, every expanded rule pair holds and no group exceeds
// its per-round load. It returns nil when everything holds.
func Verify(cfg job.Configuration, comparisons []rules.Comparison, slots map[int]int) []Violation {
	var out []Violation
	layout := cfg.Layout()
	coords := make(map[int]grid.Coord, len(slots))

	for r := 1; r <= cfg.ResourceCount; r++ {
		slot, ok := slots[r]
		if !ok {
			out = append(out, Violation{"domain", fmt.Sprintf("resource %d has no slot", r)})
			continue
		}
		c, err := layout.Decompose(slot)
		if err != nil {
			out = append(out, Violation{"domain", fmt.Sprintf("resource %d: %v", r, err)})
			continue
		}
		coords[r] = c
	}

	byslot := make(map[int][]int)
	for r, slot := range slots {
		byslot[slot] = append(byslot[slot], r)
	}
	for slot, rs := range byslot {
		if len(rs) > 1 {
			sort.Ints(rs)
			out = append(out, Violation{"distinct", fmt.Sprintf("slot %d holds resources %v", slot, rs)})
		}
	}

	members := func(e rules.Entity) []int {
		if e.Kind == rules.KindGroup {
			return cfg.Members(e.Value)
		}
		return []int{e.Value}
	}
	for i, c := range comparisons {
		for _, t := range members(c.Left) {
			tc, ok := coords[t]
			if !ok {
				continue
			}
			switch c.Right.Kind {
			case rules.KindNumber:
				if !c.Op.Holds(slots[t], c.Right.Value) {
					out = append(out, ruleViolation(i, c, fmt.Sprintf("R%d at slot %d", t, slots[t])))
				}
			case rules.KindPhase, rules.KindPipeline, rules.KindRound:
				axis := axisOf(c.Right.Kind)
				if got := tc.Get(axis); !c.Op.Holds(got, c.Right.Value-1) {
					out = append(out, ruleViolation(i, c, fmt.Sprintf("R%d %s is %d", t, axis, got+1)))
				}
			case rules.KindResource, rules.KindGroup:
				for _, u := range members(c.Right) {
					if _, ok := coords[u]; ok && !c.Op.Holds(slots[t], slots[u]) {
						out = append(out, ruleViolation(i, c, fmt.Sprintf("R%d at slot %d, R%d at slot %d", t, slots[t], u, slots[u])))
					}
				}
			}
		}
	}

	for g := 1; g <= cfg.GroupCount; g++ {
		load := make([]int, layout.Rounds)
		for _, r := range cfg.Members(g) {
			if c, ok := coords[r]; ok {
				load[c.Round]++
			}
		}
		for round, n := range load {
			if n > cfg.MaxPerRound() {
				out = append(out, Violation{"group_load", fmt.Sprintf(
					"group %d has %d resources in round %d, limit %d", g, n, round+1, cfg.MaxPerRound())})
			}
		}
	}
	return out
}

func ruleViolation(i int, c rules.Comparison, detail string) Violation {
	return Violation{"rule", fmt.Sprintf("rule %d (%s): %s", i+1, c, detail)}
}
