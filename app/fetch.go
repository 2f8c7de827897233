package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sahilchouksey/gaokao-ingest/services/driver"
	"github.com/sahilchouksey/gaokao-ingest/services/pipeline"
	"github.com/sahilchouksey/gaokao-ingest/services/store"
)

var (
	fetchImport bool
	fetchMode   string
)

func init() {
	fetchCmd.Flags().BoolVar(&fetchImport, "import", false, "Import each stage into the database after fetching it.")
	fetchCmd.Flags().StringVar(&fetchMode, "mode", string(store.ModeInsertIgnore), "Write mode used with --import: insert, insert-ignore or replace.")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [stage...]",
	Short: "Fetches every work item of the given stages that is not stored yet; all stages when none are given.",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := runtimeFrom(cmd)

		var mode store.WriteMode
		if fetchImport {
			m, err := store.ParseWriteMode(fetchMode)
			if err != nil {
				return err
			}
			mode = m
		}

		p, err := rt.Pipeline(fetchImport)
		if err != nil {
			return err
		}
		stages, err := p.Registry().Resolve(args)
		if err != nil {
			return err
		}

		var reports []*driver.Report
		var imports []*pipeline.ImportReport
		for _, stage := range stages {
			report, err := stage.Fetch(cmd.Context())
			if report != nil {
				reports = append(reports, report)
			}
			if err != nil {
				printFetchSummary(reports)
				return fmt.Errorf("fetch %s: %w", stage.Name(), err)
			}

			if !fetchImport {
				continue
			}
			imp, err := stage.Import(cmd.Context(), mode)
			if errors.Is(err, pipeline.ErrFetchOnly) {
				continue
			}
			if imp != nil {
				imports = append(imports, imp)
			}
			if err != nil {
				printFetchSummary(reports)
				printImportSummary(imports)
				return fmt.Errorf("import %s: %w", stage.Name(), err)
			}
		}

		printFetchSummary(reports)
		if fetchImport {
			printImportSummary(imports)
		}
		return nil
	},
}
