package schedule

import (
	"fmt"

	"github.com/teranos/slotgrid/errors"
	"github.com/teranos/slotgrid/rules"
)

// InvalidReferenceError reports a rule naming a resource or group outside
// the configured counts. It unwraps to errors.ErrInvalidReference.
type InvalidReferenceError struct {
	Entity     rules.Entity     // The offending reference
	Bound      int              // resource_count or group_count
	Index      int              // 0-based index of the comparison
	Comparison rules.Comparison // The comparison containing the reference
}

func (e *InvalidReferenceError) Error() string {
	countName := "resource_count"
	if e.Entity.Kind == rules.KindGroup {
		countName = "group_count"
	}
	return fmt.Sprintf("rule %d (%s): %s out of range, %s is %d",
		e.Index+1, e.Comparison, e.Entity, countName, e.Bound)
}

// Unwrap for errors.Is(err, errors.ErrInvalidReference)
func (e *InvalidReferenceError) Unwrap() error {
	return errors.ErrInvalidReference
}

// Range is the source span of the comparison
func (e *InvalidReferenceError) Range() rules.Range {
	return e.Comparison.Range
}
