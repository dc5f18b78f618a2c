package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	gshctx "github.com/atinylittleshell/gshctx/internal/context"
	"github.com/atinylittleshell/gshctx/internal/styles"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		asJSON      bool
		copyContent bool
		showMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "run <command...>",
		Short: "Run a command and print its terminal context item",
		Long: `Run a command in the persistent shell and print the resulting context item.

Failures (denied commands, errors, timeouts, empty output) are reported as an
item holding the error text, exactly as a prompt would receive them.`,
		Example: `  gshctx run git status
  gshctx run --json -- ls -la
  gshctx run --copy "git diff --stat"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd.ErrOrStderr()); err != nil {
				return err
			}

			command := strings.Join(args, " ")
			items, err := a.terminal.GetContextItems(cmd.Context(), command)
			if err != nil {
				return err
			}

			if asJSON {
				if err := writeItemsJSON(cmd.OutOrStdout(), items); err != nil {
					return err
				}
			} else {
				writeItems(cmd.OutOrStdout(), items)
			}

			if copyContent && len(items) > 0 {
				if err := clipboard.WriteAll(items[0].Content); err != nil {
					a.logger.Warn("failed to copy to clipboard", zap.Error(err))
					fmt.Fprintln(cmd.ErrOrStderr(), styles.ERROR("failed to copy to clipboard: "+err.Error()))
				}
			}

			if showMetrics {
				return a.metrics.WriteText(cmd.ErrOrStderr())
			}
			return nil
		},
	}

	// flags after the command belong to it
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the context items as JSON")
	cmd.Flags().BoolVar(&copyContent, "copy", false, "copy the item content to the clipboard")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "print execution metrics to stderr")
	return cmd
}

func writeItems(w io.Writer, items []gshctx.Item) {
	for _, item := range items {
		fmt.Fprintf(w, "%s %s\n", styles.TITLE(item.Title),
			styles.LOG(fmt.Sprintf("(%s, %d tokens)", item.URI, item.Size)))
		fmt.Fprintln(w, strings.TrimLeft(item.Content, "\n"))
	}
}

func writeItemsJSON(w io.Writer, items []gshctx.Item) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}
