package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/querypad-io/querypad/suggest"
)

func completeCommand() *cli.Command {
	return &cli.Command{
		Name:      "complete",
		Usage:     "Print ranked suggestions for a cursor position",
		ArgsUsage: "<file.sql>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:     "offset",
				Usage:    "byte offset of the cursor (defaults to end of file)",
				Value:    -1,
				Required: false,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "output results as JSON",
			},
		},
		Action: runComplete,
	}
}

func runComplete(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return ErrNoQueryFile
	}

	text, err := readQuery(args[0])
	if err != nil {
		return err
	}

	offset := int(cmd.Int("offset"))
	if offset < 0 {
		offset = len(text)
	}

	engine := buildEngine(ctx, cmd)

	items := engine.Complete(ctx, text, offset)

	if cmd.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(items)
	}

	for _, item := range items {
		detail := ""
		if item.Detail != "" {
			detail = "  " + item.Detail
		}

		if item.Kind == suggest.KindIssue {
			fmt.Printf("%-8s %s: %s\n", item.Kind, item.Label, item.Message)

			continue
		}

		fmt.Printf("%-8s %s%s\n", item.Kind, item.Insert(), detail)
	}

	return nil
}
