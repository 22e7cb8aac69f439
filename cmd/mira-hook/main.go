package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ConaryLabs/Mira/internal/config"
	"github.com/ConaryLabs/Mira/internal/db"
	"github.com/ConaryLabs/Mira/internal/hook"
	"github.com/ConaryLabs/Mira/internal/mcpclient"
	"github.com/ConaryLabs/Mira/internal/persist"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"preview": true, "recent": true, "help": true,
}

// isCLIMode determines if we should run the CLI vs the stdin hook.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → hook mode
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → hook mode
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   __  __ _
  |  \/  (_)_ _ __ _
  | |\/| | | '_/ _' |
  |_|  |_|_|_| \__,_|  pre-compaction hook

  Saves conversation context to Mira before compaction.

  Usage: mira-hook preview <transcript>
         mira-hook recent
         mira-hook --help

  Hook mode requires a piped event descriptor on stdin.`)
}

// clientTimeouts builds the per-step timeouts from config.
func clientTimeouts(cfg *config.Config) mcpclient.Timeouts {
	return mcpclient.Timeouts{
		Probe:  time.Duration(cfg.ProbeTimeoutMS) * time.Millisecond,
		Init:   time.Duration(cfg.InitTimeoutMS) * time.Millisecond,
		Notify: time.Duration(cfg.NotifyTimeoutMS) * time.Millisecond,
		Call:   time.Duration(cfg.CallTimeoutMS) * time.Millisecond,
	}
}

// runHook executes the stdin pipeline. It never fails: every error path is
// silent, and the process exit code stays 0 so the host agent is never
// blocked by its own hook.
func runHook(cfg *config.Config) {
	client := mcpclient.New(cfg.MiraURL, cfg.AuthToken, clientTimeouts(cfg))

	// A broken local store only disables the fallback path; the remote
	// path can still succeed.
	database, err := db.Open(cfg.DBPath)
	if err == nil {
		defer database.Close()
		db.ConfigurePool(database, cfg)
	} else {
		database = nil
	}

	gateway := persist.New(client, database, cfg)
	hook.NewRunner(gateway).Run(context.Background(), os.Stdin, os.Stdout)
}

// hookConfig resolves configuration for hook mode. Any failure disables
// the hook: the caller must stay silent and exit zero.
func hookConfig() (*config.Config, bool) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, false
	}
	cfg, err := config.Load(filepath.Join(homeDir, ".mira"))
	if err != nil {
		return nil, false
	}
	return cfg, true
}

// runCLI resolves config, opens the local store, and runs the requested
// subcommand. Unlike hook mode, failures here are reported and exit 1.
func runCLI() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(filepath.Join(homeDir, ".mira"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)

	app := newCLIApp(database, cfg)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before config/DB init (nothing needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil, nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// CLI mode: known subcommand
	if isCLIMode() {
		runCLI()
		return
	}

	// Unknown argument + terminal → show error (don't run the hook)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'mira-hook --help' for usage.\n")
		os.Exit(1)
	}

	// Hook mode (default): setup failures are silent no-ops, never a
	// non-zero exit or stderr noise.
	cfg, ok := hookConfig()
	if !ok {
		return
	}
	runHook(cfg)
}
