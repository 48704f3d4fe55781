package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <file.js>",
	Short: "Compile and execute a script file",
	Args:  cobra.ExactArgs(1),
	RunE:  runFile,
}

func runFile(cmd *cobra.Command, args []string) error {
	source, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	e, err := newEngineFromFlags()
	if err != nil {
		return err
	}
	defer e.Destroy()

	_, errs := e.Eval(string(source))
	if len(errs) > 0 {
		printDiagnostics(string(source), errs)
		printStats(e)
		os.Exit(70)
	}
	printStats(e)
	return nil
}
