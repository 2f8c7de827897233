package app

import (
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sahilchouksey/gaokao-ingest/services/driver"
	"github.com/sahilchouksey/gaokao-ingest/services/pipeline"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func formatMillis(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).Round(time.Millisecond).String()
}

func printFetchSummary(reports []*driver.Report) {
	if len(reports) == 0 {
		return
	}
	t := newTable()
	t.SetTitle("Fetch")
	t.AppendHeader(table.Row{"Stage", "Total", "Fetched", "Skipped", "Failed", "Parse failed"})
	for _, r := range reports {
		t.AppendRow(table.Row{r.Stage, r.Total, r.Fetched, r.Skipped, r.Failed, len(r.ParseFailures)})
	}
	t.Render()
}

func printImportSummary(reports []*pipeline.ImportReport) {
	if len(reports) == 0 {
		return
	}
	t := newTable()
	t.SetTitle("Import")
	t.AppendHeader(table.Row{"Stage", "Entity", "Mode", "Files", "Records", "Rejected", "Unreadable", "Rows affected", "Chunks"})
	for _, r := range reports {
		t.AppendRow(table.Row{
			r.Stage, r.Entity, r.Mode, r.Files, r.Records, len(r.Rejected), len(r.ParseFailures),
			r.Result.RowsAffected, r.Result.ChunksCommitted,
		})
	}
	t.Render()
}
