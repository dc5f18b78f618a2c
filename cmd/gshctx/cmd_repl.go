package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	gshctx "github.com/atinylittleshell/gshctx/internal/context"
	"github.com/atinylittleshell/gshctx/internal/styles"
)

const replHelp = `Enter a shell command to capture its output as context.
  :restart   start a fresh shell
  :context   show working directory, system and history context
  :help      show this help
  exit       leave`

func newReplCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Run commands one per line against a single persistent shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd.ErrOrStderr()); err != nil {
				return err
			}
			return runRepl(cmd, a)
		},
	}
}

func runRepl(cmd *cobra.Command, a *app) error {
	ctx := cmd.Context()
	in := cmd.InOrStdin()
	out := cmd.OutOrStdout()

	interactive := isTerminal(in)
	if interactive {
		fmt.Fprintln(out, styles.LOG(replHelp))
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		if interactive {
			fmt.Fprint(out, styles.PROMPT("gshctx> "))
		}
		if !scanner.Scan() {
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		case ":help":
			fmt.Fprintln(out, replHelp)
			continue
		case ":restart":
			if err := a.session.Restart(ctx); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), styles.ERROR(err.Error()))
			}
			continue
		case ":context":
			writeContext(out, a.context.GetContext())
			continue
		}

		items, err := a.terminal.GetContextItems(ctx, line)
		if errors.Is(err, gshctx.ErrDisabled) {
			return err
		}
		writeItems(out, items)

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
