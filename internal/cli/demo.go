package cli

import (
	"context"
	"fmt"
	"runtime"

	"github.com/calvinalkan/iterweak/internal/config"

	flag "github.com/spf13/pflag"
)

const (
	demoMembers     = 6
	demoSurvivors   = 4
	defaultDemoWait = 10
)

var demoScript = []string{
	"new obj fn",
	`add 1 "foo" @obj nil :bar @fn`,
	"len",
	"ls",
	"drop obj fn",
	"gc",
}

// DemoCmd returns the demo command.
func DemoCmd() *Command {
	flags := flag.NewFlagSet("demo", flag.ContinueOnError)
	maxGC := flags.Int("max-gc", defaultDemoWait, "Extra collections to run while waiting for reclamation")

	return &Command{
		Flags: flags,
		Usage: "demo [flags]",
		Short: "Run the reclamation walkthrough",
		Long: `Add six members to a weak set, two of them objects, then drop the objects
and collect garbage. In strict mode the set shrinks to the four survivors
1, "foo", nil and :bar, in insertion order.`,
		Exec: func(ctx context.Context, o *IO, s *Session, _ []string) error {
			return execDemo(ctx, o, s, *maxGC)
		},
	}
}

func execDemo(ctx context.Context, o *IO, session *Session, maxGC int) error {
	cfg := session.cfg

	for _, line := range demoScript {
		o.Println("iterweak>", line)

		if err := session.Exec(ctx, o, line); err != nil {
			return fmt.Errorf("demo step %q: %w", line, err)
		}
	}

	want := demoSurvivors
	if cfg.Mode == config.ModeBestEffort {
		want = demoMembers
	}

	for range maxGC {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if session.set.Len() == want {
			break
		}

		runtime.GC()
	}

	for _, line := range []string{"len", "slots", "ls"} {
		o.Println("iterweak>", line)

		if err := session.Exec(ctx, o, line); err != nil {
			return fmt.Errorf("demo step %q: %w", line, err)
		}
	}

	if got := session.set.Len(); got != want {
		o.Warn(fmt.Sprintf("set has %d members after gc", got), fmt.Sprintf("expected %d, try --max-gc", want))
	}

	return nil
}
