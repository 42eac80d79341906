package cli

import (
	"fmt"
	"strconv"
	"strings"
	"unique"
)

// Object is a named heap object created by the "new" shell command. Sessions
// reference objects only through their name table, so dropping a name makes
// the object garbage.
type Object struct {
	Name    string
	Payload []byte
}

// splitArgs splits a shell line on whitespace. Double-quoted tokens may
// contain spaces and use Go escape syntax; they keep their quotes so that
// parseValue can tell "1" from 1.
func splitArgs(line string) ([]string, error) {
	var args []string

	rest := strings.TrimSpace(line)
	for rest != "" {
		if rest[0] == '"' {
			quoted, err := strconv.QuotedPrefix(rest)
			if err != nil {
				return nil, fmt.Errorf("%w: unterminated string %s", ErrInvalidArgument, rest)
			}

			args = append(args, quoted)
			rest = strings.TrimSpace(rest[len(quoted):])

			continue
		}

		end := strings.IndexAny(rest, " \t")
		if end < 0 {
			end = len(rest)
		}

		args = append(args, rest[:end])
		rest = strings.TrimSpace(rest[end:])
	}

	return args, nil
}

// parseValue turns a shell token into a member value:
//
//	@name     the named object (held weakly by collections)
//	nil       nil
//	true      bool
//	:sym      unique.Handle[string] symbol
//	42, 1.5   int, float64
//	"a b"     quoted string
//	word      bare string
func (s *Session) parseValue(tok string) (any, error) {
	switch {
	case strings.HasPrefix(tok, "@"):
		obj, ok := s.objects[tok[1:]]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownObject, tok)
		}

		return obj, nil
	case tok == "nil":
		return nil, nil
	case tok == "true" || tok == "false":
		return tok == "true", nil
	case strings.HasPrefix(tok, ":") && len(tok) > 1:
		return unique.Make(tok[1:]), nil
	case strings.HasPrefix(tok, `"`):
		str, err := strconv.Unquote(tok)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidArgument, tok)
		}

		return str, nil
	}

	if n, err := strconv.Atoi(tok); err == nil {
		return n, nil
	}

	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return f, nil
	}

	return tok, nil
}

// formatValue renders a member so that parseValue would read it back.
func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case *Object:
		return "@" + v.Name
	case unique.Handle[string]:
		return ":" + v.Value()
	case string:
		return strconv.Quote(v)
	default:
		return fmt.Sprint(v)
	}
}
