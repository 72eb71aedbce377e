package sym

import (
	"testing"
	"unicode/utf8"
)

func TestSymbolToCommandAndCommandToSymbolAreBidirectional(t *testing.T) {
	for symbol, cmd := range SymbolToCommand {
		got, ok := CommandToSymbol[cmd]
		if !ok {
			t.Errorf("SymbolToCommand has %q → %q, but CommandToSymbol has no entry for %q", symbol, cmd, cmd)
			continue
		}
		if got != symbol {
			t.Errorf("bidirectional mismatch: SymbolToCommand[%q] = %q, but CommandToSymbol[%q] = %q", symbol, cmd, cmd, got)
		}
	}

	for cmd, symbol := range CommandToSymbol {
		got, ok := SymbolToCommand[symbol]
		if !ok {
			t.Errorf("CommandToSymbol has %q → %q, but SymbolToCommand has no entry for %q", cmd, symbol, symbol)
			continue
		}
		if got != cmd {
			t.Errorf("bidirectional mismatch: CommandToSymbol[%q] = %q, but SymbolToCommand[%q] = %q", cmd, symbol, symbol, got)
		}
	}
}

func TestCommandDescriptionsCoversAllCommands(t *testing.T) {
	for cmd := range CommandToSymbol {
		if _, ok := CommandDescriptions[cmd]; !ok {
			t.Errorf("CommandDescriptions missing entry for command %q", cmd)
		}
	}
	if len(CommandDescriptions) != len(CommandToSymbol) {
		t.Errorf("CommandDescriptions has %d entries, CommandToSymbol has %d", len(CommandDescriptions), len(CommandToSymbol))
	}
}

func TestCommandsAreInCommandToSymbol(t *testing.T) {
	if len(Commands) != len(CommandToSymbol) {
		t.Errorf("Commands has %d entries, CommandToSymbol has %d", len(Commands), len(CommandToSymbol))
	}
	for _, cmd := range Commands {
		if _, ok := CommandToSymbol[cmd]; !ok {
			t.Errorf("Commands contains %q which is not in CommandToSymbol", cmd)
		}
	}
}

func TestSymbolsAreSingleRunes(t *testing.T) {
	for symbol, cmd := range SymbolToCommand {
		if !utf8.ValidString(symbol) || utf8.RuneCountInString(symbol) != 1 {
			t.Errorf("symbol %q for command %q is not a single rune", symbol, cmd)
		}
	}
}

func TestShort(t *testing.T) {
	if got, want := Short("solve"), "⊞ Solve job configurations"; got != want {
		t.Errorf("Short(solve) = %q, want %q", got, want)
	}
}
