// Command implog reads a program from stdin, parses it, checks every rule
// for range restriction, and interprets it, writing each question's answers
// to stdout. This mirrors original_source/implog/src/bin/cli.rs's
// read-parse-check-interpret flow, fleshed out with a real driver in place
// of the prototype's commented-out Environment wiring.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/arrowgraph/implog/internal/engine"
	"github.com/arrowgraph/implog/internal/ident"
	"github.com/arrowgraph/implog/internal/parse"
	"github.com/arrowgraph/implog/internal/restrict"
	log "github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

var (
	traceFlag bool
	quietFlag bool
)

func main() {
	root := &cobra.Command{
		Use:   "implog",
		Short: "Evaluate a speculative-provenance Datalog program read from stdin",
		RunE:  run,
	}
	root.Flags().BoolVar(&traceFlag, "trace", false, "log each fixpoint iteration")
	root.Flags().BoolVar(&quietFlag, "quiet", false, "suppress all logging")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	program, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("implog: reading stdin: %w", err)
	}

	logger := newLogger()

	interner := ident.New()
	stmts, err := parse.Parse("stdin", string(program), interner)
	if err != nil {
		return fmt.Errorf("implog: parse error(s):\n%w", err)
	}

	if err := restrict.Check(stmts); err != nil {
		return fmt.Errorf("implog: range-restriction failure(s):\n%w", err)
	}

	env := engine.New(interner, logger)
	env.Interpret(stmts, os.Stdout)
	return nil
}

func newLogger() log.Logger {
	level := log.Warn
	switch {
	case quietFlag:
		level = log.Off
	case traceFlag:
		level = log.Trace
	}
	return log.New(&log.LoggerOptions{
		Name:  "implog",
		Level: level,
	})
}
