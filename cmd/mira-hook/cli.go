package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"github.com/yuin/goldmark"

	"github.com/ConaryLabs/Mira/internal/config"
	"github.com/ConaryLabs/Mira/internal/db"
	"github.com/ConaryLabs/Mira/internal/errors"
	"github.com/ConaryLabs/Mira/internal/summary"
	"github.com/ConaryLabs/Mira/internal/transcript"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(database *sql.DB, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "mira-hook",
		Usage:   "Pre-compaction context saver for Mira",
		Version: Version,
		Commands: []*cli.Command{
			previewCmd(cfg),
			recentCmd(database),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// previewCmd mines a transcript and prints the summary that would be saved.
func previewCmd(_ *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "preview",
		Usage:     "Mine a transcript and print the summary without saving",
		ArgsUsage: "<transcript-path>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "trigger", Aliases: []string{"t"}, Value: "manual", Usage: "Compaction trigger label"},
			&cli.BoolFlag{Name: "html", Usage: "Render the summary as HTML"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("transcript path is required"))
			}
			path := c.Args().First()
			if _, err := os.Stat(path); err != nil {
				return outputError(errors.NewTranscriptMissing(path))
			}

			ac := transcript.Mine(path)
			text := summary.Compose(ac, c.String("trigger"))

			if c.Bool("html") {
				var buf bytes.Buffer
				if err := goldmark.Convert([]byte(text), &buf); err != nil {
					return outputError(errors.NewInternal(err))
				}
				fmt.Println(buf.String())
				return nil
			}

			fmt.Println(text)
			return nil
		},
	}
}

// recentCmd lists recently saved session summaries from the local store.
func recentCmd(database *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "recent",
		Usage: "List recent locally saved session summaries",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 10, Usage: "Maximum entries to show"},
		},
		Action: func(c *cli.Context) error {
			limit := c.Int("limit")
			if limit < 1 {
				return outputError(errors.NewInvalidRequest("limit must be positive"))
			}

			entries, err := db.RecentEntries(database, "session_summary", limit)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(entries)
		},
	}
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if miraErr, ok := err.(*errors.MiraError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", miraErr.Code, miraErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
