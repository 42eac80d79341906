package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	flag "github.com/spf13/pflag"
)

// ScriptCmd returns the run command. Lines come from the named file, or from
// stdin when no file (or "-") is given.
func ScriptCmd(stdin io.Reader) *Command {
	flags := flag.NewFlagSet("run", flag.ContinueOnError)
	echo := flags.BoolP("echo", "e", false, "Echo each line before running it")
	keepGoing := flags.BoolP("keep-going", "k", false, "Report failing lines and continue")

	return &Command{
		Flags: flags,
		Usage: "run [flags] [file]",
		Short: "Run shell commands from a file",
		Long: `Run shell commands from a file, one per line, against the session.
Blank lines and lines starting with # are skipped. Reads stdin when the file
is omitted or "-".`,
		Exec: func(ctx context.Context, o *IO, s *Session, args []string) error {
			return execScript(ctx, o, s, stdin, args, *echo, *keepGoing)
		},
	}
}

func execScript(ctx context.Context, o *IO, session *Session, stdin io.Reader, args []string, echo, keepGoing bool) error {
	if len(args) > 1 {
		return fmt.Errorf("%w: at most one script file", ErrInvalidArgument)
	}

	in := stdin

	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("cannot open script: %w", err)
		}
		defer func() { _ = f.Close() }()

		in = f
	}

	if in == nil {
		return fmt.Errorf("%w: script file", ErrMissingArgument)
	}

	scanner := bufio.NewScanner(in)
	lineNo := 0

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if isExit(line) {
			break
		}

		if echo {
			o.Println("iterweak>", line)
		}

		if err := session.Exec(ctx, o, line); err != nil {
			if !keepGoing {
				return fmt.Errorf("line %d: %w", lineNo, err)
			}

			o.Warn(fmt.Sprintf("line %d", lineNo), err.Error())
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading script: %w", err)
	}

	return nil
}
