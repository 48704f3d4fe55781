package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var evalCmd = &cobra.Command{
	Use:   "eval <expression>",
	Short: "Evaluate an expression and print its result",
	Args:  cobra.ExactArgs(1),
	RunE:  runEval,
}

func runEval(cmd *cobra.Command, args []string) error {
	source := args[0]

	e, err := newEngineFromFlags()
	if err != nil {
		return err
	}
	defer e.Destroy()

	result, errs := e.Eval(source)
	if len(errs) > 0 {
		printDiagnostics(source, errs)
		printStats(e)
		os.Exit(70)
	}
	fmt.Println(e.VM.ToDisplayString(result))
	printStats(e)
	return nil
}
