// Command typecheck drives internal/evaluator against a JSON-encoded
// AST fixture, standing in for the real parser/binder (external
// collaborators, spec.md §1) so the core can be exercised end-to-end
// from the command line.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/typeeval/core/internal/ast"
	"github.com/typeeval/core/internal/config"
	"github.com/typeeval/core/internal/diagnostics"
	"github.com/typeeval/core/internal/evaluator"
	"github.com/typeeval/core/internal/importresolver"
	"github.com/typeeval/core/internal/symbols"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "typecheck",
		Short: "Exercise the type evaluator core against a JSON AST fixture",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a .typeeval.yaml config file")

	root.AddCommand(
		newCheckCmd(&configPath),
		newHoverCmd(&configPath),
		newPrintTypeCmd(&configPath),
	)
	return root
}

func loadConfig(path string) (*config.EvaluatorConfig, error) {
	if path == "" {
		if found, ok := config.FindConfigFile("."); ok {
			path = found
		}
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func loadFile(path string) (*ast.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ast.Decode(data, path)
}

// newFileEvaluator loads the fixture, builds its flat module scope
// (binder.go), and wires an Evaluator against it, ready for either
// a whole-file check or a single-node query.
func newFileEvaluator(configPath *string, path string) (*evaluator.Evaluator, *ast.File, error) {
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return nil, nil, err
	}
	file, err := loadFile(path)
	if err != nil {
		return nil, nil, err
	}
	e := evaluator.New(importresolver.New(), cfg)
	scope := bindModule(file)
	e.ScopeOf = func(ast.Node) *symbols.Scope { return scope }
	return e, file, nil
}

// newCheckCmd implements `check <file.json>`: evaluate every top-level
// statement and render every collected diagnostic, colorized by
// severity.
func newCheckCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file.json>",
		Short: "Type-check a JSON AST fixture and print its diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, file, err := newFileEvaluator(configPath, args[0])
			if err != nil {
				return err
			}
			for _, stmt := range file.Body {
				e.EvaluateTypesForStatement(stmt)
			}
			printReports(cmd, e.Sink.Reports())
			if len(e.Sink.Reports()) > 0 {
				os.Exit(1)
			}
			return nil
		},
	}
}

// newHoverCmd implements `hover <file.json> <offset>`: evaluate the
// whole file so every node's type lands in the cache, then print the
// type of whichever node's position is closest to (at or before)
// offset.
func newHoverCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "hover <file.json> <offset>",
		Short: "Print the type of the node at a byte offset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			offset, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("parsing offset %q: %w", args[1], err)
			}
			e, file, err := newFileEvaluator(configPath, args[0])
			if err != nil {
				return err
			}
			for _, stmt := range file.Body {
				e.EvaluateTypesForStatement(stmt)
			}
			nodes := collectNodes(file.Body)
			n := nodeAtOffset(nodes, offset)
			if n == nil {
				return fmt.Errorf("no node found at offset %d", offset)
			}
			expr, ok := n.(ast.Expr)
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: <statement, no type>\n", n.Position())
				return nil
			}
			t := e.GetType(expr, nil, 0)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", n.Position(), e.PrintType(t))
			return nil
		},
	}
}

// newPrintTypeCmd implements `print-type <file.json> <node-id>`: look
// the node id up (the same identity Decode's Arena assigns) and print
// its evaluated type directly, without a position search.
func newPrintTypeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "print-type <file.json> <node-id>",
		Short: "Print the type of a specific node id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("parsing node id %q: %w", args[1], err)
			}
			e, file, err := newFileEvaluator(configPath, args[0])
			if err != nil {
				return err
			}
			for _, stmt := range file.Body {
				e.EvaluateTypesForStatement(stmt)
			}
			nodes := collectNodes(file.Body)
			n := nodeByID(nodes, id)
			if n == nil {
				return fmt.Errorf("no node with id %d", id)
			}
			expr, ok := n.(ast.Expr)
			if !ok {
				return fmt.Errorf("node %d (%T) is a statement, not an expression", id, n)
			}
			t := e.GetType(expr, nil, 0)
			fmt.Fprintln(cmd.OutOrStdout(), e.PrintType(t))
			return nil
		},
	}
}

// printReports renders every diagnostic one per line, colorized by
// severity the way a terminal-facing linter does: red for errors,
// yellow for warnings, cyan for information.
func printReports(cmd *cobra.Command, reports []*diagnostics.Report) {
	out := cmd.OutOrStdout()
	for _, r := range reports {
		var paint func(format string, a ...interface{}) string
		switch r.Severity {
		case diagnostics.SeverityError:
			paint = color.New(color.FgRed, color.Bold).Sprintf
		case diagnostics.SeverityWarning:
			paint = color.New(color.FgYellow).Sprintf
		default:
			paint = color.New(color.FgCyan).Sprintf
		}
		pos := "?"
		if r.Span != nil {
			pos = r.Span.Start.String()
		}
		fmt.Fprintln(out, paint("%s: %s: %s", pos, r.Code, r.Message))
	}
	if len(reports) == 0 {
		fmt.Fprintln(out, color.New(color.FgGreen).Sprint("no diagnostics"))
	}
}
