package shell

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// defaultDeniedCommands are destructive, privileged or system-control
// commands that are never run on the caller's behalf.
var defaultDeniedCommands = []string{
	"rm",
	"chmod",
	"shutdown",
	"history",
	"user",
	"sudo",
	"su",
	"passwd",
	"chown",
	"chgrp",
	"kill",
	"reboot",
	"poweroff",
	"init",
	"systemctl",
	"journalctl",
	"dmesg",
	"lsblk",
	"lsmod",
	"modprobe",
	"insmod",
	"rmmod",
	"lsusb",
	"lspci",
}

// Denylist rejects commands by their leading token.
type Denylist struct {
	tokens map[string]struct{}
}

// NewDenylist builds a denylist from the given tokens. Blank entries are
// ignored and surrounding whitespace is trimmed.
func NewDenylist(tokens ...string) *Denylist {
	cleaned := lo.Uniq(lo.Map(tokens, func(t string, _ int) string {
		return strings.TrimSpace(t)
	}))

	d := &Denylist{tokens: make(map[string]struct{}, len(cleaned))}
	for _, t := range cleaned {
		if t != "" {
			d.tokens[t] = struct{}{}
		}
	}
	return d
}

// DefaultDenylist returns the built-in denylist.
func DefaultDenylist() *Denylist {
	return NewDenylist(defaultDeniedCommands...)
}

// DefaultDeniedCommands returns a copy of the built-in denied tokens.
func DefaultDeniedCommands() []string {
	return append([]string(nil), defaultDeniedCommands...)
}

// With returns a new denylist holding d's tokens plus extra.
func (d *Denylist) With(extra ...string) *Denylist {
	return NewDenylist(append(d.Tokens(), extra...)...)
}

// Tokens returns the denied tokens in sorted order.
func (d *Denylist) Tokens() []string {
	tokens := lo.Keys(d.tokens)
	sort.Strings(tokens)
	return tokens
}

// Contains reports whether token is denied.
func (d *Denylist) Contains(token string) bool {
	_, ok := d.tokens[token]
	return ok
}

// Check returns a *DeniedError if any simple command in the input starts
// with a denied token. Input that does not parse, and commands whose name
// is only known at run time, are denied too since they cannot be checked.
func (d *Denylist) Check(command string) error {
	names, err := ParseCommands(command)
	if err != nil {
		return &DeniedError{
			Command: command,
			Reason:  fmt.Sprintf("it could not be parsed (%v)", err),
		}
	}
	for _, n := range names {
		if n.Dynamic {
			return &DeniedError{
				Token:   n.Name,
				Command: command,
				Reason:  fmt.Sprintf("the command name %q is only known at run time", n.Name),
			}
		}
		if d.Contains(n.Name) {
			return &DeniedError{Token: n.Name, Command: command}
		}
	}
	return nil
}
