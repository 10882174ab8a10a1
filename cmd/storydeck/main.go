// Storydeck draws storylets from decks: content pieces guarded by
// conditions written in a small expression language, ordered by priority
// and redrawn on a schedule.
//
// Usage:
//
//	# Evaluate an expression
//	storydeck eval "gold > 5 and not cursed" --var gold=7 --var cursed=false
//
//	# Validate deck files
//	storydeck validate ./decks
//
//	# Draw a hand and journal it
//	storydeck draw barks.yaml --count 3 --seed 42 --journal runs.db
//
//	# Run deck scenarios
//	storydeck test ./scenarios
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/storydeck/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}

	// Commands report their own failures; anything else came from cobra.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
