package app

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sahilchouksey/gaokao-ingest/services/pipeline"
	"github.com/sahilchouksey/gaokao-ingest/services/store"
)

var (
	runsStage string
	runsLimit int
)

func init() {
	runsCmd.Flags().StringVar(&runsStage, "stage", "", "Only show runs of this stage (e.g. groups, groups.import).")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Number of runs to show.")
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(sourcesCmd)
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Lists recent pipeline runs.",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := runtimeFrom(cmd)

		db, err := rt.Database()
		if err != nil {
			return err
		}
		runs, err := store.NewRunLog(db.GetDB()).Recent(cmd.Context(), runsStage, runsLimit)
		if err != nil {
			return err
		}

		t := newTable()
		t.AppendHeader(table.Row{"Run", "Stage", "Status", "Started", "Took", "Total", "Fetched", "Skipped", "Failed", "Parse failed", "Rows"})
		for _, r := range runs {
			t.AppendRow(table.Row{
				r.RunID[:8], r.Stage, r.Status, r.StartedAt.Format("2006-01-02 15:04:05"), formatMillis(r.Duration),
				r.Total, r.Fetched, r.Skipped, r.Failed, r.ParseFailed, r.RowsWritten,
			})
		}
		t.Render()
		return nil
	},
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Lists the configured sources in run order.",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := runtimeFrom(cmd)
		registry := pipeline.New(rt.Catalog, rt.Settings()).Registry()

		t := newTable()
		t.AppendHeader(table.Row{"Stage", "Name", "Enumerates", "Parent", "Entity", "File"})
		for _, name := range registry.Names() {
			stage, err := registry.Get(name)
			if err != nil {
				return err
			}
			s := stage.Source()
			entity := s.Entity
			if entity == "" {
				entity = "(fetch only)"
			}
			t.AppendRow(table.Row{stage.Name(), stage.DisplayName(), s.Enumeration(), s.Parent, entity, s.File})
		}
		t.Render()
		return nil
	},
}
