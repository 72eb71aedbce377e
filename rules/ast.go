package rules

import "strings"

// Comparison is one parsed rule: Left Op Right. Left is always a resource
// or a group.
type Comparison struct {
	Left  Entity
	Op    Operator
	Right Entity
	Range Range // source span, zero for comparisons built in code
}

// String renders the comparison in canonical rule text
func (c Comparison) String() string {
	return c.Left.String() + " " + c.Op.String() + " " + c.Right.String()
}

// Equal compares the rule itself, ignoring source position
func (c Comparison) Equal(o Comparison) bool {
	return c.Left == o.Left && c.Op == o.Op && c.Right == o.Right
}

// Format renders comparisons one per line. Parsing the result yields the
// same comparisons.
func Format(comparisons []Comparison) string {
	var b strings.Builder
	for _, c := range comparisons {
		b.WriteString(c.String())
		b.WriteByte('\n')
	}
	return b.String()
}
