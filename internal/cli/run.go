package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/calvinalkan/iterweak/internal/config"

	flag "github.com/spf13/pflag"
)

type globalFlags struct {
	workDir    string
	configPath string
	mode       string
	eager      bool
	gcRounds   int
	help       bool
}

func newGlobalFlagSet(g *globalFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("iterweak", flag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(io.Discard)

	fs.StringVarP(&g.workDir, "cwd", "C", "", "Run as if started in `dir`")
	fs.StringVarP(&g.configPath, "config", "c", "", "Use config `file` instead of "+config.FileName)
	fs.StringVar(&g.mode, "mode", "", "Registry mode: strict or best-effort")
	fs.BoolVar(&g.eager, "eager", false, "Evict reclaimed members from runtime cleanups")
	fs.IntVar(&g.gcRounds, "gc-rounds", 0, "Default number of collections for the gc command")
	fs.BoolVarP(&g.help, "help", "h", false, "Show help")

	return fs
}

// overrides returns the config overrides for the flags that were set.
func (g *globalFlags) overrides(fs *flag.FlagSet) config.Overrides {
	var o config.Overrides

	if fs.Changed("mode") {
		o.Mode = &g.mode
	}

	if fs.Changed("eager") {
		o.EagerEviction = &g.eager
	}

	if fs.Changed("gc-rounds") {
		o.GCRounds = &g.gcRounds
	}

	return o
}

// Run is the main entry point. args includes the program name. Returns the
// exit code.
func Run(ctx context.Context, in io.Reader, out, errOut io.Writer, args []string, env map[string]string) int {
	var g globalFlags

	fs := newGlobalFlagSet(&g)

	if len(args) > 0 {
		args = args[1:]
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(out, fs, nil)

			return 0
		}

		fprintln(errOut, "error:", err)
		printUsage(errOut, fs, nil)

		return 1
	}

	rest := fs.Args()

	if g.help || len(rest) == 0 {
		printUsage(out, fs, nil)

		return 0
	}

	workDir := g.workDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			fprintln(errOut, "error: cannot get working directory:", err)

			return 1
		}

		workDir = wd
	}

	cfg, sources, err := config.Load(workDir, g.configPath, g.overrides(fs), env)
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	commands := allCommands(sources, in)

	for _, cmd := range commands {
		if cmd.Name() == rest[0] {
			return cmd.Run(ctx, NewIO(out, errOut), NewSession(cfg), rest[1:])
		}
	}

	fprintln(errOut, "error:", fmt.Errorf("%w: %s", ErrUnknownCommand, rest[0]))
	printUsage(errOut, fs, commands)

	return 1
}

func allCommands(sources config.Sources, in io.Reader) []*Command {
	return []*Command{
		ReplCmd(),
		DemoCmd(),
		ScriptCmd(in),
		PrintConfigCmd(sources),
	}
}

func printUsage(w io.Writer, fs *flag.FlagSet, commands []*Command) {
	if commands == nil {
		commands = allCommands(config.Sources{}, nil)
	}

	fprintln(w, "iterweak - iterable weak collections playground")
	fprintln(w)
	fprintln(w, "Usage: iterweak [flags] <command> [args]")
	fprintln(w)
	fprintln(w, "Commands:")

	for _, cmd := range commands {
		fprintln(w, cmd.HelpLine())
	}

	fprintln(w)
	fprintln(w, "Flags:")
	fprintln(w, fs.FlagUsages())
	fprintln(w, "Run 'iterweak <command> --help' for command flags.")
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}
