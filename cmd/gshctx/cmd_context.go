package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/atinylittleshell/gshctx/internal/styles"
)

func newContextCmd(a *app) *cobra.Command {
	var types []string

	cmd := &cobra.Command{
		Use:   "context",
		Short: "Print supplemental context from the shell session",
		Long: `Print the supplemental context gathered next to terminal output:
working_directory, system_info, git_status and terminal_history.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd.ErrOrStderr()); err != nil {
				return err
			}
			writeContext(cmd.OutOrStdout(), a.context.GetContextForTypes(types))
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&types, "types", "t", nil, "retrievers to run (default all)")
	return cmd
}

func writeContext(w io.Writer, context map[string]string) {
	names := lo.Keys(context)
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintln(w, styles.TITLE(name))
		fmt.Fprintln(w, context[name])
	}
}
