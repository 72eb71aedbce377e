package rules

import "fmt"

// Position represents a line/column position in rule text.
// Uses LSP conventions: 1-based line numbers, 0-based character offsets.
type Position struct {
	Line      int `json:"line"`      // 1-based line number
	Character int `json:"character"` // 0-based character offset within line
	Offset    int `json:"offset"`    // 0-based byte offset in entire source
}

// String renders the position for humans (1-based column)
func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Character+1)
}

// Range represents a source span from start to end position
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// positionTracker maintains line/column/offset state while the lexer consumes text
type positionTracker struct {
	line      int
	character int
	offset    int
}

func newPositionTracker() positionTracker {
	return positionTracker{line: 1}
}

// advance moves past text, which must be the bytes at the current offset
func (pt *positionTracker) advance(text string) {
	for _, ch := range text {
		if ch == '\n' {
			pt.line++
			pt.character = 0
		} else {
			pt.character++
		}
	}
	pt.offset += len(text)
}

func (pt *positionTracker) mark() Position {
	return Position{Line: pt.line, Character: pt.character, Offset: pt.offset}
}
