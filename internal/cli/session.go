package cli

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/calvinalkan/iterweak/internal/config"
	"github.com/calvinalkan/iterweak/pkg/iterweak"
	"github.com/calvinalkan/iterweak/pkg/weakref"

	flag "github.com/spf13/pflag"
)

// objectPayloadSize keeps shell objects well clear of the tiny allocator.
const objectPayloadSize = 64

// Session is the state behind the shell: one weak set, one weak map and the
// table of named objects that keeps members reachable. Every command runs
// against one.
type Session struct {
	cfg     config.Config
	setReg  *weakref.Registry
	mapReg  *weakref.Registry
	set     *iterweak.Set[any]
	kv      *iterweak.Map[any, any]
	objects map[string]*Object
}

// NewSession returns an empty session configured by cfg.
func NewSession(cfg config.Config) *Session {
	newRegistry := func() *weakref.Registry {
		if cfg.Mode == config.ModeBestEffort {
			return weakref.NewRegistry(weakref.Strong{})
		}

		return weakref.NewRegistry(nil)
	}

	setReg := newRegistry()

	mapReg := setReg
	if !cfg.SharedRegistry {
		mapReg = newRegistry()
	}

	return &Session{
		cfg:     cfg,
		setReg:  setReg,
		mapReg:  mapReg,
		set:     iterweak.NewSetWithOptions[any](iterweak.Options{Registry: setReg, EagerEviction: cfg.EagerEviction}),
		kv:      iterweak.NewMapWithOptions[any, any](iterweak.Options{Registry: mapReg, EagerEviction: cfg.EagerEviction}),
		objects: make(map[string]*Object),
	}
}

// shellCommands returns the commands available inside a session. Flag sets
// keep parsed values, so every line gets a fresh set of commands.
func shellCommands() []*Command {
	return []*Command{
		{Usage: "new <name>...", Short: "Create named objects", Exec: execNew},
		{Usage: "drop <name>...", Short: "Forget named objects (they become garbage)", Exec: execDrop},
		{Usage: "objects", Short: "List named objects", Exec: execObjects},
		{Usage: "add <value>...", Short: "Add values to the set", Exec: execAdd},
		{Usage: "has <value>", Short: "Test set membership", Exec: execHas},
		{Usage: "del <value>", Short: "Delete a value from the set", Exec: execDel},
		lsCmd(),
		{Usage: "set <key> <value>", Short: "Store a map entry", Exec: execSet},
		{Usage: "get <key>", Short: "Read a map entry", Exec: execGet},
		{Usage: "unset <key>", Short: "Delete a map entry", Exec: execUnset},
		mapCmd(),
		{Usage: "len", Short: "Count live entries", Exec: execLen},
		{Usage: "slots", Short: "Count backing slots, stale ones included", Exec: execSlots},
		{Usage: "registry", Short: "Sweep and count registry handles", Exec: execRegistry},
		{
			Usage: "gc [rounds]",
			Short: "Run the garbage collector",
			Long:  "Run the garbage collector. Without rounds, gc_rounds from the config is used.",
			Exec:  execGC,
		},
		{Usage: "dump <file>", Short: "Write a JSON snapshot atomically", Exec: execDump},
		{Usage: "help [command]", Short: "Show this help, or help for one command", Exec: execHelp},
	}
}

func findShellCommand(name string) (*Command, bool) {
	for _, cmd := range shellCommands() {
		if cmd.Name() == name {
			return cmd, true
		}
	}

	return nil, false
}

// CommandNames returns the shell command names, sorted.
func CommandNames() []string {
	names := make([]string, 0, len(shellCommands()))
	for _, cmd := range shellCommands() {
		names = append(names, cmd.Name())
	}

	slices.Sort(names)

	return names
}

func sortedNames[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

// Exec runs one shell line. Empty lines are ignored.
func (s *Session) Exec(ctx context.Context, o *IO, line string) error {
	args, err := splitArgs(line)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		return nil
	}

	cmd, ok := findShellCommand(strings.ToLower(args[0]))
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
	}

	return cmd.exec(ctx, o, s, args[1:])
}

func (s *Session) parseValues(args []string) ([]any, error) {
	values := make([]any, 0, len(args))

	for _, arg := range args {
		v, err := s.parseValue(arg)
		if err != nil {
			return nil, err
		}

		values = append(values, v)
	}

	return values, nil
}

func (s *Session) parseOne(args []string, what string) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: want exactly one %s", ErrMissingArgument, what)
	}

	return s.parseValue(args[0])
}

// guard turns the unhashable-value panic of the collections into an error.
func guard(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			rErr, ok := r.(error)
			if !ok || !errors.Is(rErr, weakref.ErrUnhashable) {
				panic(r)
			}

			err = fmt.Errorf("%w: %w", ErrUnhashableValue, rErr)
		}
	}()

	fn()

	return nil
}

func execNew(_ context.Context, o *IO, s *Session, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: object name", ErrMissingArgument)
	}

	for _, name := range args {
		if name == "" || strings.ContainsAny(name, "@\"") {
			return fmt.Errorf("%w: object name %q", ErrInvalidArgument, name)
		}

		s.objects[name] = &Object{Name: name, Payload: make([]byte, objectPayloadSize)}
		o.Printf("@%s\n", name)
	}

	return nil
}

func execDrop(_ context.Context, o *IO, s *Session, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: object name", ErrMissingArgument)
	}

	for _, name := range args {
		name = strings.TrimPrefix(name, "@")

		if _, ok := s.objects[name]; !ok {
			return fmt.Errorf("%w: @%s", ErrUnknownObject, name)
		}

		delete(s.objects, name)
		o.Printf("dropped @%s\n", name)
	}

	return nil
}

func execObjects(_ context.Context, o *IO, s *Session, _ []string) error {
	if len(s.objects) == 0 {
		o.Println("(none)")

		return nil
	}

	for _, name := range sortedNames(s.objects) {
		o.Printf("@%s\n", name)
	}

	return nil
}

func execAdd(_ context.Context, o *IO, s *Session, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: value", ErrMissingArgument)
	}

	values, err := s.parseValues(args)
	if err != nil {
		return err
	}

	for _, v := range values {
		if err := guard(func() { s.set.Add(v) }); err != nil {
			return err
		}
	}

	o.Printf("added %d\n", len(values))

	return nil
}

func execHas(_ context.Context, o *IO, s *Session, args []string) error {
	v, err := s.parseOne(args, "value")
	if err != nil {
		return err
	}

	o.Println(s.set.Has(v))

	return nil
}

func execDel(_ context.Context, o *IO, s *Session, args []string) error {
	v, err := s.parseOne(args, "value")
	if err != nil {
		return err
	}

	o.Println(s.set.Delete(v))

	return nil
}

func lsCmd() *Command {
	flags := flag.NewFlagSet("ls", flag.ContinueOnError)
	limit := flags.IntP("limit", "n", 0, "Stop after `n` members (0 lists all)")

	return &Command{
		Flags: flags,
		Usage: "ls [flags]",
		Short: "List live set members",
		Long: `List live set members in insertion order. Stale members met on the way are
evicted; with --limit, members after the stop point are not visited.`,
		Exec: func(_ context.Context, o *IO, s *Session, _ []string) error {
			printed := 0

			for v := range s.set.Values() {
				if *limit > 0 && printed == *limit {
					break
				}

				o.Println(formatValue(v))

				printed++
			}

			if printed == 0 {
				o.Println("(empty)")
			}

			return nil
		},
	}
}

func execSet(_ context.Context, o *IO, s *Session, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: want <key> <value>", ErrMissingArgument)
	}

	values, err := s.parseValues(args)
	if err != nil {
		return err
	}

	if err := guard(func() { s.kv.Set(values[0], values[1]) }); err != nil {
		return err
	}

	o.Printf("%s => %s\n", formatValue(values[0]), formatValue(values[1]))

	return nil
}

func execGet(_ context.Context, o *IO, s *Session, args []string) error {
	k, err := s.parseOne(args, "key")
	if err != nil {
		return err
	}

	v, ok := s.kv.Get(k)
	if !ok {
		o.Println("(absent)")

		return nil
	}

	o.Println(formatValue(v))

	return nil
}

func execUnset(_ context.Context, o *IO, s *Session, args []string) error {
	k, err := s.parseOne(args, "key")
	if err != nil {
		return err
	}

	o.Println(s.kv.Delete(k))

	return nil
}

func mapCmd() *Command {
	flags := flag.NewFlagSet("map", flag.ContinueOnError)
	limit := flags.IntP("limit", "n", 0, "Stop after `n` entries (0 lists all)")

	return &Command{
		Flags: flags,
		Usage: "map [flags]",
		Short: "List live map entries",
		Exec: func(_ context.Context, o *IO, s *Session, _ []string) error {
			printed := 0

			for k, v := range s.kv.Entries() {
				if *limit > 0 && printed == *limit {
					break
				}

				o.Printf("%s => %s\n", formatValue(k), formatValue(v))

				printed++
			}

			if printed == 0 {
				o.Println("(empty)")
			}

			return nil
		},
	}
}

func execLen(_ context.Context, o *IO, s *Session, _ []string) error {
	o.Printf("set=%d map=%d\n", s.set.Len(), s.kv.Len())

	return nil
}

func execSlots(_ context.Context, o *IO, s *Session, _ []string) error {
	o.Printf("set=%d map=%d\n", s.set.Slots(), s.kv.Slots())

	return nil
}

func execRegistry(_ context.Context, o *IO, s *Session, _ []string) error {
	swept := s.setReg.Sweep()
	if s.mapReg != s.setReg {
		swept += s.mapReg.Sweep()
	}

	if s.mapReg == s.setReg {
		o.Printf("handles=%d swept=%d (shared)\n", s.setReg.Len(), swept)

		return nil
	}

	o.Printf("handles=%d+%d swept=%d\n", s.setReg.Len(), s.mapReg.Len(), swept)

	return nil
}

func execGC(ctx context.Context, o *IO, s *Session, args []string) error {
	rounds := s.cfg.GCRounds

	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("%w: rounds %q", ErrInvalidArgument, args[0])
		}

		rounds = n
	}

	for range rounds {
		if err := ctx.Err(); err != nil {
			return err
		}

		runtime.GC()
	}

	o.Printf("gc: %d rounds\n", rounds)

	return nil
}

func execDump(_ context.Context, o *IO, s *Session, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: dump file path", ErrMissingArgument)
	}

	path := args[0]
	if unquoted, err := strconv.Unquote(path); err == nil {
		path = unquoted
	}

	snap := s.Snapshot()

	if err := WriteSnapshot(path, snap); err != nil {
		return err
	}

	o.Printf("wrote %s (set=%d map=%d)\n", path, len(snap.Set), len(snap.Map))

	return nil
}

func execHelp(_ context.Context, o *IO, _ *Session, args []string) error {
	if len(args) > 0 {
		cmd, ok := findShellCommand(strings.ToLower(args[0]))
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
		}

		cmd.PrintHelp(o, "")

		return nil
	}

	o.Println("Commands:")

	for _, cmd := range shellCommands() {
		o.Println(cmd.HelpLine())
	}

	o.Printf("  %-22s %s\n", "exit", "Leave the shell")
	o.Println()
	o.Println(`Values: @name, nil, true/false, :symbol, numbers, "strings", bare words`)
	o.Println(`Run "help <command>" or "<command> --help" for details.`)

	return nil
}
