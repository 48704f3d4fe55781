package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var compileOutput string

var compileCmd = &cobra.Command{
	Use:   "compile <file.js>",
	Short: "Compile a script to the portable bytecode container",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompile,
}

func init() {
	compileCmd.Flags().StringVarP(&compileOutput, "output", "o", "", "output path (default: input file with .mqjsc extension)")
}

func runCompile(cmd *cobra.Command, args []string) error {
	inPath := args[0]
	source, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inPath, err)
	}

	e, err := newEngineFromFlags()
	if err != nil {
		return err
	}
	defer e.Destroy()

	out, errs := e.CompileToBytes(string(source))
	if len(errs) > 0 {
		printDiagnostics(string(source), errs)
		os.Exit(70)
	}

	outPath := compileOutput
	if outPath == "" {
		outPath = strings.TrimSuffix(inPath, ".js") + ".mqjsc"
	}
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%d bytes)\n", outPath, len(out))
	return nil
}
