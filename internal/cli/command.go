package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
)

// Command is one iterweak command. The same type serves the top-level
// commands (repl, demo, run, print-config) and the lines typed into a shell
// session; both run against a [Session].
type Command struct {
	// Flags defines command-specific flags. Nil means the command takes
	// none, so arguments such as -1 reach Exec untouched.
	Flags *flag.FlagSet

	// Usage starts with the command name. Examples: "demo [flags]",
	// "add <value>...".
	Usage string

	// Short is the one-line description used in command listings.
	Short string

	// Long is the full help text. Short is used when it is empty.
	Long string

	// Exec runs the command after flags are parsed.
	Exec func(ctx context.Context, o *IO, s *Session, args []string) error
}

// Name returns the command name (first word of Usage).
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")

	return name
}

// HelpLine returns the line shown for c in a command listing.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-22s %s", c.Usage, c.Short)
}

// PrintHelp prints the full help for c. prefix is prepended to the usage
// line: "iterweak" for top-level commands, empty inside the shell.
func (c *Command) PrintHelp(o *IO, prefix string) {
	usage := c.Usage
	if prefix != "" {
		usage = prefix + " " + usage
	}

	o.Println("Usage:", usage)
	o.Println()

	desc := c.Long
	if desc == "" {
		desc = c.Short
	}

	o.Println(desc)

	if c.Flags != nil && c.Flags.HasFlags() {
		o.Println()
		o.Println("Flags:")
		o.Printf("%s", c.Flags.FlagUsages())
	}
}

// parse returns the positional arguments. It returns [flag.ErrHelp] when help
// was asked for.
func (c *Command) parse(args []string) ([]string, error) {
	if c.Flags == nil || !c.Flags.HasFlags() {
		if len(args) == 1 && (args[0] == "-h" || args[0] == "--help") {
			return nil, flag.ErrHelp
		}

		return args, nil
	}

	c.Flags.SetOutput(&strings.Builder{}) // discard pflag output

	if err := c.Flags.Parse(args); err != nil {
		return nil, err
	}

	return c.Flags.Args(), nil
}

// exec runs c as a shell line inside s. Help goes to o; errors are returned.
func (c *Command) exec(ctx context.Context, o *IO, s *Session, args []string) error {
	rest, err := c.parse(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.PrintHelp(o, "")

			return nil
		}

		return fmt.Errorf("%s: %w", c.Name(), err)
	}

	return c.Exec(ctx, o, s, rest)
}

// Run parses flags and executes c as a top-level command. Returns the exit
// code. Handles error printing internally for consistent output ordering.
func (c *Command) Run(ctx context.Context, o *IO, s *Session, args []string) int {
	rest, err := c.parse(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.PrintHelp(o, "iterweak")

			return 0
		}

		o.ErrPrintln("error:", err)
		o.ErrPrintln()
		c.PrintHelp(o, "iterweak")

		return 1
	}

	if err := c.Exec(ctx, o, s, rest); err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	return o.Finish()
}
