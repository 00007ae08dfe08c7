package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/ajitpratap0/objpool/internal/workload"
	"github.com/ajitpratap0/objpool/pkg/config"
	"github.com/ajitpratap0/objpool/pkg/json"
)

// Output formats of the simulate report.
const (
	outputJSON   = "json"
	outputPretty = "pretty"
	outputJSONL  = "jsonl"
	outputTable  = "table"
)

var bold = color.New(color.Bold)

// simulationReport is the document printed at the end of a run.
type simulationReport struct {
	Config string          `json:"config"`
	Mode   config.InitMode `json:"init_mode"`
	workload.Report
}

func writeReport(w io.Writer, rep simulationReport, format string) error {
	switch format {
	case outputPretty:
		return json.MarshalToWriter(w, rep, "  ")
	case outputJSONL:
		enc := json.NewStreamingEncoder(w, false)
		for _, ps := range rep.Pools.Pools {
			if err := enc.Encode(ps); err != nil {
				return err
			}
		}
		rep.Pools.Pools = nil
		if err := enc.Encode(rep); err != nil {
			return err
		}
		return enc.Close()
	case outputTable:
		return writeTable(w, rep)
	default:
		return json.MarshalToWriter(w, rep, "")
	}
}

// writeTable renders the pools of a report as a table followed by the
// workload totals.
func writeTable(w io.Writer, rep simulationReport) error {
	_, _ = bold.Fprintf(w, "%s (%s, %s)\n", rep.Config, rep.Mode, rep.Duration)

	table := tablewriter.NewWriter(w)
	table.Header("Pool", "Reserve", "In Use", "Total", "Target", "Max", "Auto Grow")
	for _, ps := range rep.Pools.Pools {
		if err := table.Append(
			ps.Name,
			strconv.Itoa(ps.InReserve),
			strconv.Itoa(ps.InUse),
			strconv.Itoa(ps.Total),
			strconv.Itoa(ps.Target),
			strconv.Itoa(ps.Max),
			strconv.FormatBool(ps.AutoGrow),
		); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w,
		"acquired %d, released %d, self-releasing %d, unpooled %d\nthroughput %.1f/s, acquire p50 %s, p99 %s\n",
		rep.Acquired, rep.Released, rep.SelfReleasing, rep.Unpooled,
		rep.Throughput, rep.Latency.P50, rep.Latency.P99)
	return err
}
