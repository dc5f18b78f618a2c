package shell

import (
	"path"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

// ConvertQuotes rewrites every double quote that is not escaped with a
// backslash into a single quote. Escaped quotes are left alone.
func ConvertQuotes(command string) string {
	var b strings.Builder
	b.Grow(len(command))
	for i := 0; i < len(command); i++ {
		c := command[i]
		if c == '"' && (i == 0 || command[i-1] != '\\') {
			b.WriteByte('\'')
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Sanitize trims the command and strips the characters usable to chain or
// inject commands (`;`, backticks, a lone `&`) when they appear outside a
// quoted segment. `&&` and redirections such as `2>&1` are kept.
//
// This is a best-effort filter, not a shell parser. The denylist is the
// real gate.
func Sanitize(command string) string {
	command = strings.TrimSpace(command)

	var b strings.Builder
	b.Grow(len(command))

	var single, double bool
	for i := 0; i < len(command); i++ {
		c := command[i]

		if c == '\\' && !single && i+1 < len(command) {
			b.WriteByte(c)
			b.WriteByte(command[i+1])
			i++
			continue
		}

		switch {
		case c == '\'' && !double:
			single = !single
		case c == '"' && !single:
			double = !double
		case single || double:
		case c == ';' || c == '`':
			continue
		case c == '&':
			if keepAmpersand(command, i) {
				break
			}
			continue
		}
		b.WriteByte(c)
	}
	return strings.TrimSpace(b.String())
}

func keepAmpersand(command string, i int) bool {
	if i+1 < len(command) && command[i+1] == '&' {
		return true
	}
	if i > 0 {
		switch command[i-1] {
		case '&', '>', '<':
			return true
		}
	}
	return i+1 < len(command) && command[i+1] == '>'
}

// CommandName is the resolved name of one simple command.
type CommandName struct {
	Name string
	// Dynamic is set when the shell only learns the name at run time, e.g.
	// `$cmd`, `$(echo rm)` or a glob. Name then holds the word as written.
	Dynamic bool
}

// maxNestedScripts bounds how deep eval, sh -c and similar are followed.
const maxNestedScripts = 4

// wrapperCommands run their arguments as another command.
var wrapperCommands = map[string]bool{
	"builtin": true,
	"command": true,
	"env":     true,
	"exec":    true,
	"nice":    true,
	"nohup":   true,
	"setsid":  true,
	"stdbuf":  true,
	"time":    true,
	"timeout": true,
	"xargs":   true,
}

// scriptShells run the argument following -c as a script.
var scriptShells = map[string]bool{
	"bash": true,
	"dash": true,
	"ksh":  true,
	"sh":   true,
	"zsh":  true,
}

// ParseCommands returns the name of every simple command in the input the
// way the shell resolves it: quotes and backslash escapes are removed and
// paths are reduced to their base name. Commands started through wrappers
// such as `env`, `command`, `eval`, `sh -c` or `trap` are included.
// Input that does not parse is an error.
func ParseCommands(command string) ([]CommandName, error) {
	return parseCommands(command, 0)
}

func parseCommands(src string, depth int) ([]CommandName, error) {
	file, err := syntax.NewParser().Parse(strings.NewReader(src), "")
	if err != nil {
		return nil, err
	}

	var (
		names   []CommandName
		nestErr error
	)
	syntax.Walk(file, func(node syntax.Node) bool {
		if nestErr != nil {
			return false
		}
		call, ok := node.(*syntax.CallExpr)
		if !ok || len(call.Args) == 0 {
			return true
		}
		found, err := callNames(src, call.Args, depth)
		if err != nil {
			nestErr = err
			return false
		}
		names = append(names, found...)
		return true
	})
	if nestErr != nil {
		return nil, nestErr
	}
	return names, nil
}

// callNames resolves the command name of a call plus any command it runs
// on the caller's behalf.
func callNames(src string, args []*syntax.Word, depth int) ([]CommandName, error) {
	name := resolveWord(src, args[0])
	names := []CommandName{name}
	if name.Dynamic {
		return names, nil
	}
	rest := args[1:]

	switch {
	case wrapperCommands[name.Name]:
		// Every literal argument may be the wrapped command, e.g. the
		// `rm` in `nice -n 5 rm x`.
		first := true
		for _, arg := range rest {
			n := resolveWord(src, arg)
			if strings.HasPrefix(n.Name, "-") || strings.Contains(n.Name, "=") {
				continue
			}
			if first || !n.Dynamic {
				names = append(names, n)
			}
			first = false
		}
	case name.Name == "eval":
		script := make([]string, 0, len(rest))
		for _, arg := range rest {
			n := unquoteWord(src, arg)
			if n.Dynamic {
				return append(names, n), nil
			}
			script = append(script, n.Name)
		}
		return nestedNames(names, strings.Join(script, " "), depth)
	case name.Name == "trap" && len(rest) > 0:
		return nestedWord(names, src, rest[0], depth)
	case name.Name == "alias":
		for _, arg := range rest {
			n := unquoteWord(src, arg)
			if n.Dynamic {
				return append(names, n), nil
			}
			if _, value, ok := strings.Cut(n.Name, "="); ok {
				var err error
				if names, err = nestedNames(names, value, depth); err != nil {
					return nil, err
				}
			}
		}
	case scriptShells[name.Name]:
		for i, arg := range rest {
			n := resolveWord(src, arg)
			if !n.Dynamic && strings.HasPrefix(n.Name, "-") && !strings.HasPrefix(n.Name, "--") &&
				strings.Contains(n.Name, "c") && i+1 < len(rest) {
				return nestedWord(names, src, rest[i+1], depth)
			}
		}
	}
	return names, nil
}

func nestedWord(names []CommandName, src string, w *syntax.Word, depth int) ([]CommandName, error) {
	n := unquoteWord(src, w)
	if n.Dynamic {
		return append(names, n), nil
	}
	return nestedNames(names, n.Name, depth)
}

func nestedNames(names []CommandName, script string, depth int) ([]CommandName, error) {
	if depth >= maxNestedScripts {
		return append(names, CommandName{Name: script, Dynamic: true}), nil
	}
	nested, err := parseCommands(script, depth+1)
	if err != nil {
		return nil, err
	}
	return append(names, nested...), nil
}

// resolveWord returns the command name a word resolves to.
func resolveWord(src string, w *syntax.Word) CommandName {
	n := unquoteWord(src, w)
	if n.Dynamic || n.Name == "" {
		return n
	}
	return CommandName{Name: path.Base(n.Name)}
}

// unquoteWord removes quotes and escapes from a word the way the shell
// would. Words needing expansion come back as Dynamic with their source.
func unquoteWord(src string, w *syntax.Word) CommandName {
	raw := src[w.Pos().Offset():w.End().Offset()]
	dynamic := CommandName{Name: raw, Dynamic: true}

	for _, part := range w.Parts {
		switch p := part.(type) {
		case *syntax.Lit:
			// globs and brace lists expand to other words
			if raw != "[" && strings.ContainsAny(p.Value, "*?[{") {
				return dynamic
			}
		case *syntax.SglQuoted:
		case *syntax.DblQuoted:
			for _, inner := range p.Parts {
				if _, ok := inner.(*syntax.Lit); !ok {
					return dynamic
				}
			}
		default:
			return dynamic
		}
	}

	fields, err := expand.Fields(nil, w)
	if err != nil || len(fields) != 1 {
		return dynamic
	}
	return CommandName{Name: fields[0]}
}

// LeadingTokens returns the command name of every simple command in the
// input, e.g. ["git", "grep"] for `git log && grep foo x`. Names computed at
// run time are skipped. Input that does not parse yields nil.
func LeadingTokens(command string) []string {
	names, err := ParseCommands(command)
	if err != nil {
		return nil
	}
	var tokens []string
	for _, n := range names {
		if !n.Dynamic {
			tokens = append(tokens, n.Name)
		}
	}
	return tokens
}

// LeadingToken returns the command name of the first simple command.
func LeadingToken(command string) string {
	tokens := LeadingTokens(command)
	if len(tokens) == 0 {
		return ""
	}
	return tokens[0]
}
