package app

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"github.com/spf13/cobra"

	"github.com/sahilchouksey/gaokao-ingest/services/pipeline"
	"github.com/sahilchouksey/gaokao-ingest/services/store"
)

var importMode string

func init() {
	importCmd.Flags().StringVar(&importMode, "mode", string(store.ModeInsertIgnore), "Write mode: insert, insert-ignore or replace.")
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import [stage...]",
	Short: "Loads stored responses into the database; all importable stages when none are given.",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := runtimeFrom(cmd)

		mode, err := store.ParseWriteMode(importMode)
		if err != nil {
			return err
		}
		p, err := rt.Pipeline(true)
		if err != nil {
			return err
		}
		stages, err := p.Registry().Resolve(args)
		if err != nil {
			return err
		}

		var imports []*pipeline.ImportReport
		for _, stage := range stages {
			imp, err := stage.Import(cmd.Context(), mode)
			if errors.Is(err, pipeline.ErrFetchOnly) {
				if len(args) > 0 {
					return err
				}
				log.Debugf("[IMPORT] %s is fetch-only, skipping", stage.Name())
				continue
			}
			if imp != nil {
				imports = append(imports, imp)
			}
			if err != nil {
				printImportSummary(imports)
				return fmt.Errorf("import %s: %w", stage.Name(), err)
			}
		}

		printImportSummary(imports)
		return nil
	},
}
