// Package rules compiles the slot rule language into comparisons.
//
// A rule program is a whitespace separated list of comparisons:
//
//	RESOURCE_2 > 30
//	GROUP_1 = PHASE_4
//	GROUP_2 != ROUND_1   # comments run to end of line
//
// The left side names a resource or a group; the right side is a number, a
// structural coordinate (PHASE_n, PIPELINE_n, ROUND_n) or another resource or
// group. Identifiers are 1-based. Referential validity (does GROUP_7 exist?)
// is not checked here; see package schedule.
package rules

import (
	"fmt"
	"strconv"
)

// Kind tags an Entity. The set is closed: every switch over Kind in this
// module lists all six values.
type Kind uint8

const (
	KindNumber Kind = iota + 1
	KindPhase
	KindRound
	KindPipeline
	KindResource
	KindGroup
)

// Kinds lists every Kind in declaration order
var Kinds = []Kind{KindNumber, KindPhase, KindRound, KindPipeline, KindResource, KindGroup}

// String returns the kind name used in diagnostics
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "Number"
	case KindPhase:
		return "Phase"
	case KindRound:
		return "Round"
	case KindPipeline:
		return "Pipeline"
	case KindResource:
		return "Resource"
	case KindGroup:
		return "Group"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Prefix is the identifier prefix in rule text, empty for numbers
func (k Kind) Prefix() string {
	switch k {
	case KindPhase:
		return "PHASE_"
	case KindRound:
		return "ROUND_"
	case KindPipeline:
		return "PIPELINE_"
	case KindResource:
		return "RESOURCE_"
	case KindGroup:
		return "GROUP_"
	default:
		return ""
	}
}

// TokenName is the grammar terminal for this kind (NUMBER, PHASE_ID, ...)
func (k Kind) TokenName() string {
	switch k {
	case KindNumber:
		return "NUMBER"
	case KindPhase:
		return "PHASE_ID"
	case KindRound:
		return "ROUND_ID"
	case KindPipeline:
		return "PIPELINE_ID"
	case KindResource:
		return "RESOURCE_ID"
	case KindGroup:
		return "GROUP_ID"
	default:
		return "UNKNOWN"
	}
}

// Structural reports whether the kind names a grid coordinate
func (k Kind) Structural() bool {
	return k == KindPhase || k == KindRound || k == KindPipeline
}

// CanLead reports whether the kind may appear on the left of a comparison
func (k Kind) CanLead() bool {
	return k == KindResource || k == KindGroup
}

// Entity is a literal number or a 1-based reference to a phase, round,
// pipeline, resource or group.
type Entity struct {
	Kind  Kind
	Value int
}

// Number returns a literal entity
func Number(n int) Entity { return Entity{Kind: KindNumber, Value: n} }

// Phase returns a reference to the n-th phase
func Phase(n int) Entity { return Entity{Kind: KindPhase, Value: n} }

// Round returns a reference to the n-th round
func Round(n int) Entity { return Entity{Kind: KindRound, Value: n} }

// Pipeline returns a reference to the n-th pipeline
func Pipeline(n int) Entity { return Entity{Kind: KindPipeline, Value: n} }

// Resource returns a reference to the n-th resource
func Resource(n int) Entity { return Entity{Kind: KindResource, Value: n} }

// Group returns a reference to the n-th group
func Group(n int) Entity { return Entity{Kind: KindGroup, Value: n} }

// String renders the entity as it is written in rule text
func (e Entity) String() string {
	if e.Kind == KindNumber {
		return strconv.Itoa(e.Value)
	}
	return e.Kind.Prefix() + strconv.Itoa(e.Value)
}

// GoString is used by %#v in test failures
func (e Entity) GoString() string {
	return fmt.Sprintf("%s(%d)", e.Kind, e.Value)
}
