// Package sym defines the glyphs slotgrid prints in command help and
// terminal output. They are stable across the CLI and the language server.
package sym

// Command glyphs
const (
	Solve = "⊞" // solve — place resources on the grid
	Parse = "⋈" // parse — read rule text
	AM    = "≡" // am — configuration
	Runs  = "⊔" // runs — recorded solves
	LSP   = "⌬" // lsp — language server
)

// Status glyphs
const (
	OK         = "✓"
	Infeasible = "✗"
	Unknown    = "?"
)

// Commands lists the top-level commands that carry a glyph, in help order
var Commands = []string{"solve", "parse", "am", "runs", "lsp"}

// SymbolToCommand maps glyph strings to their text command equivalents.
var SymbolToCommand = map[string]string{
	Solve: "solve",
	Parse: "parse",
	AM:    "am",
	Runs:  "runs",
	LSP:   "lsp",
}

// CommandToSymbol maps text commands to their canonical glyph strings.
var CommandToSymbol = map[string]string{
	"solve": Solve,
	"parse": Parse,
	"am":    AM,
	"runs":  Runs,
	"lsp":   LSP,
}

// CommandDescriptions is the one-line summary shown next to each glyph
var CommandDescriptions = map[string]string{
	"solve": "Solve job configurations",
	"parse": "Parse rule text and show its canonical form",
	"am":    "Show and validate configuration",
	"runs":  "Inspect recorded solves",
	"lsp":   "Serve the rule language over stdio",
}

// Short returns "<glyph> <description>" for use as a cobra Short
func Short(command string) string {
	return CommandToSymbol[command] + " " + CommandDescriptions[command]
}
