package main

import (
	"context"
	"os"

	"github.com/teranos/slotgrid/cmd/slotgrid/commands"
)

func main() {
	if err := commands.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		commands.RenderError(os.Stderr, err)
		os.Exit(1)
	}
}
