package app

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type runtimeKey struct{}

var rootCmd = &cobra.Command{
	Use:           "gaokao-ingest",
	Short:         "Harvests admissions data from public JSON endpoints into a relational database.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		rt, err := Setup()
		if err != nil {
			return err
		}
		cmd.SetContext(context.WithValue(cmd.Context(), runtimeKey{}, rt))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if rt, ok := cmd.Context().Value(runtimeKey{}).(*Runtime); ok {
			rt.Close()
		}
	},
}

func runtimeFrom(cmd *cobra.Command) *Runtime {
	return cmd.Context().Value(runtimeKey{}).(*Runtime)
}

// ExecuteContext runs the command tree and exits non-zero on error.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
