package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/querypad-io/querypad/analysis"
)

var ErrNoQueryFile = errors.New("no query file given")

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Print table references and lint findings for a query",
		ArgsUsage: "<file.sql>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "output results as JSON",
			},
		},
		Action: runAnalyze,
	}
}

func runAnalyze(_ context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return ErrNoQueryFile
	}

	text, err := readQuery(args[0])
	if err != nil {
		return err
	}

	analyzed := analysis.NewAnalyzer().Analyze(text)

	if cmd.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(map[string]any{
			"tables":      analyzed.Tables,
			"diagnostics": analyzed.Diagnostics,
		})
	}

	printAnalysis(analyzed)

	if analyzed.HasBlockingDiagnostics() {
		return cli.Exit("", 1)
	}

	return nil
}

func printAnalysis(analyzed *analysis.AnalyzedQuery) {
	if len(analyzed.Tables) == 0 {
		fmt.Println("no table references")
	}

	for _, ref := range analyzed.Tables {
		var extra []string

		if ref.Alias != "" {
			extra = append(extra, "alias "+ref.Alias)
		}

		if ref.IsSubquery {
			extra = append(extra, fmt.Sprintf("subquery, fields [%s]",
				strings.Join(ref.OutputFields, ", ")))
		}

		if ref.ScopeDepth > 0 {
			extra = append(extra, fmt.Sprintf("depth %d", ref.ScopeDepth))
		}

		suffix := ""
		if len(extra) > 0 {
			suffix = " (" + strings.Join(extra, ", ") + ")"
		}

		fmt.Printf("%4d-%-4d %s%s\n", ref.StartIndex, ref.EndIndex, ref.QualifiedName, suffix)
	}

	for _, d := range analyzed.Diagnostics {
		fmt.Printf("%4d-%-4d %s: %s [%s]\n",
			d.StartIndex, d.EndIndex, severityLabel(d.Severity), d.Message, d.Code)
	}
}

func severityLabel(s analysis.DiagnosticSeverity) string {
	switch s {
	case analysis.SeverityError:
		return "error"
	case analysis.SeverityPrereq:
		return "prereq"
	case analysis.SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}
