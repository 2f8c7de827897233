package app

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sahilchouksey/gaokao-ingest/services/export"
	"github.com/sahilchouksey/gaokao-ingest/services/pipeline"
)

var (
	exportOut    string
	exportUpload bool
	exportPrefix string
)

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output directory (default <stage dir>/output).")
	exportCmd.Flags().BoolVar(&exportUpload, "upload", false, "Upload the CSV files to the configured export bucket.")
	exportCmd.Flags().StringVar(&exportPrefix, "prefix", "gaokao", "Object key prefix used with --upload.")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <stage>",
	Short: "Writes a stage's stored responses as CSV, one file per series.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := runtimeFrom(cmd)

		stage, err := pipeline.New(rt.Catalog, rt.Settings()).Registry().Get(args[0])
		if err != nil {
			return err
		}

		series, err := stage.Export(exportOut, time.Now())
		if err != nil {
			return err
		}

		var urls []string
		if exportUpload {
			uploader, err := export.NewUploader(rt.Storage())
			if err != nil {
				return err
			}
			urls, err = uploader.UploadSeries(cmd.Context(), exportPrefix+"/"+stage.Name(), series)
			if err != nil {
				return err
			}
		}

		t := newTable()
		t.AppendHeader(table.Row{"Series", "Files", "Columns", "Rows", "Output"})
		for i, s := range series {
			output := s.Path
			if i < len(urls) {
				output = urls[i]
			}
			t.AppendRow(table.Row{s.Name, len(s.Files), len(s.Header), s.Rows, output})
		}
		t.Render()

		fmt.Printf("%d series exported from %s\n", len(series), stage.DisplayName())
		return nil
	},
}
