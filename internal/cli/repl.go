package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"

	flag "github.com/spf13/pflag"
)

const historyPerms = 0o600

// ReplCmd returns the repl command.
func ReplCmd() *Command {
	return &Command{
		Flags: flag.NewFlagSet("repl", flag.ContinueOnError),
		Usage: "repl",
		Short: "Start an interactive shell",
		Long: `Start an interactive shell over one weak set and one weak map.

Create objects with "new", add them to the collections, "drop" them and run
"gc" to watch their entries disappear. Type "help" inside the shell for the
command list.`,
		Exec: execRepl,
	}
}

func isExit(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "exit", "quit", "q":
		return true
	default:
		return false
	}
}

func execRepl(ctx context.Context, o *IO, session *Session, _ []string) error {
	cfg := session.cfg

	state := liner.NewLiner()
	defer func() { _ = state.Close() }()

	state.SetCtrlCAborts(true)
	state.SetCompleter(completer)

	if cfg.HistoryFile != "" {
		if f, err := os.Open(cfg.HistoryFile); err == nil {
			_, _ = state.ReadHistory(f)
			_ = f.Close()
		}
	}

	defer saveHistory(state, cfg.HistoryFile)

	o.Printf("iterweak shell (mode=%s, eager=%v)\n", cfg.Mode, cfg.EagerEviction)
	o.Println("Type 'help' for available commands.")

	for ctx.Err() == nil {
		line, err := state.Prompt("iterweak> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				o.Println()

				return nil
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		state.AppendHistory(line)

		if isExit(line) {
			return nil
		}

		if err := session.Exec(ctx, o, line); err != nil {
			o.ErrPrintln("error:", err)
		}
	}

	return ctx.Err()
}

func saveHistory(state *liner.State, path string) {
	if path == "" {
		return
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, historyPerms)
	if err != nil {
		return
	}

	_, _ = state.WriteHistory(f)
	_ = f.Close()
}

// completer completes shell command names.
func completer(line string) []string {
	var completions []string

	lower := strings.ToLower(line)
	for _, cmd := range append(CommandNames(), "exit", "quit") {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}

	return completions
}
