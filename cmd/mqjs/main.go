// Command mqjs is the CLI front end for the engine: run a script,
// evaluate an expression, compile to the portable bytecode container,
// or drop into an interactive REPL.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	memoryLimit int64
	showStats   bool
	colorMode   string
	configPath  string
)

var rootCmd = &cobra.Command{
	Use:   "mqjs",
	Short: "mqjs is a minimalist ES5-subset JavaScript engine",
	Long:  `mqjs compiles and runs a small ES5 subset of JavaScript against a stack-based bytecode VM.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runFile(cmd, args)
	},
}

func main() {
	rootCmd.PersistentFlags().Int64Var(&memoryLimit, "memory-limit", 0, "heap budget in bytes (0 = unbounded)")
	rootCmd.PersistentFlags().BoolVarP(&showStats, "stats", "d", false, "print heap statistics after execution")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "auto", "colorize diagnostics (auto|on|off)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML configuration file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(replCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
