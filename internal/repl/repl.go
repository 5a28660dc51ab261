// Package repl implements the interactive prompt of the sampler CLI.
package repl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/c-bata/go-prompt"

	"github.com/tejas7777/data-sampler/internal/config"
	"github.com/tejas7777/data-sampler/internal/ingest"
	"github.com/tejas7777/data-sampler/internal/measurement"
	"github.com/tejas7777/data-sampler/internal/parquet"
	"github.com/tejas7777/data-sampler/internal/query"
	"github.com/tejas7777/data-sampler/internal/report"
	"github.com/tejas7777/data-sampler/internal/sampler"
)

// REPL holds the state of one interactive session.
type REPL struct {
	cfg       *config.Config
	resampler *sampler.Resampler

	raw     []measurement.Measurement
	sampled []measurement.Measurement
}

// New creates a REPL session.
func New(cfg *config.Config) (*REPL, error) {
	rs, err := sampler.New(cfg.Sampler.IntervalMinutes)
	if err != nil {
		return nil, err
	}
	return &REPL{cfg: cfg, resampler: rs}, nil
}

// Run starts the interactive loop. It returns when the user exits.
func (r *REPL) Run() {
	fmt.Printf("data-sampler interactive mode (interval: %dm). Type 'help' for commands.\n",
		r.resampler.IntervalMinutes())

	p := prompt.New(
		r.execute,
		r.complete,
		prompt.OptionTitle("data-sampler"),
		prompt.OptionPrefix("sampler> "),
		prompt.OptionPrefixTextColor(prompt.Cyan),
	)
	p.Run()
}

var commands = []prompt.Suggest{
	{Text: "load", Description: "Load measurements from CSV/JSON files"},
	{Text: "show", Description: "Show loaded (raw) or resampled data"},
	{Text: "resample", Description: "Resample loaded data, optional interval in minutes"},
	{Text: "grouped", Description: "Resample and print grouped by type"},
	{Text: "report", Description: "Print the resampling report"},
	{Text: "export", Description: "Export resampled data to a Parquet file"},
	{Text: "sql", Description: "Run a SQL query over the export directory"},
	{Text: "types", Description: "List measurement types"},
	{Text: "interval", Description: "Show the default interval"},
	{Text: "clear", Description: "Discard loaded data"},
	{Text: "help", Description: "Show command help"},
	{Text: "exit", Description: "Leave the prompt"},
}

func (r *REPL) complete(d prompt.Document) []prompt.Suggest {
	text := d.TextBeforeCursor()
	if strings.Contains(text, " ") {
		switch strings.Fields(text)[0] {
		case "show":
			return prompt.FilterHasPrefix([]prompt.Suggest{
				{Text: "raw"}, {Text: "sampled"},
			}, d.GetWordBeforeCursor(), true)
		default:
			return nil
		}
	}
	return prompt.FilterHasPrefix(commands, d.GetWordBeforeCursor(), true)
}

func (r *REPL) execute(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "load":
		r.cmdLoad(args)
	case "show":
		r.cmdShow(args)
	case "resample":
		r.cmdResample(args)
	case "grouped":
		r.cmdGrouped(args)
	case "report":
		r.cmdReport()
	case "export":
		r.cmdExport(args)
	case "sql":
		r.cmdSQL(strings.TrimSpace(strings.TrimPrefix(line, "sql")))
	case "types":
		for _, t := range measurement.Types {
			fmt.Println(t)
		}
	case "interval":
		fmt.Printf("%dm\n", r.resampler.IntervalMinutes())
	case "clear":
		r.raw, r.sampled = nil, nil
		fmt.Println("cleared")
	case "help":
		for _, c := range commands {
			fmt.Printf("  %-10s %s\n", c.Text, c.Description)
		}
	case "exit", "quit":
		fmt.Println("bye")
		os.Exit(0)
	default:
		fmt.Printf("unknown command: %s (try 'help')\n", cmd)
	}
}

func (r *REPL) cmdLoad(paths []string) {
	if len(paths) == 0 {
		fmt.Println("usage: load <file> [file...]")
		return
	}

	ms, res, err := ingest.LoadFiles(context.Background(), paths, ingest.FormatAuto)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	r.raw = append(r.raw, ms...)
	r.sampled = nil
	fmt.Printf("loaded %d measurements (%d skipped), %d total\n", res.Loaded, res.Failed, len(r.raw))
	for _, msg := range res.Errors {
		fmt.Println("  skipped:", msg)
	}
}

func (r *REPL) cmdShow(args []string) {
	which := "sampled"
	if len(args) > 0 {
		which = args[0]
	}

	switch which {
	case "raw":
		sampler.Print(r.raw)
	case "sampled":
		if r.sampled == nil {
			fmt.Println("nothing resampled yet (try 'resample')")
			return
		}
		sampler.Print(r.sampled)
	default:
		fmt.Println("usage: show [raw|sampled]")
	}
}

func (r *REPL) resampleOptions(args []string) (*sampler.Options, error) {
	if len(args) == 0 {
		return nil, nil
	}
	minutes, err := strconv.Atoi(args[0])
	if err != nil {
		return nil, fmt.Errorf("interval %q is not an integer", args[0])
	}
	return &sampler.Options{IntervalMinutes: minutes}, nil
}

func (r *REPL) cmdResample(args []string) {
	opts, err := r.resampleOptions(args)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	out, err := r.resampler.Resample(r.raw, opts)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	r.sampled = out
	sampler.Print(out)
}

func (r *REPL) cmdGrouped(args []string) {
	opts, err := r.resampleOptions(args)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	grouped, err := r.resampler.ResampleGrouped(r.raw, opts)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	sampler.PrintGrouped(grouped)
}

func (r *REPL) cmdReport() {
	if r.sampled == nil {
		fmt.Println("nothing resampled yet (try 'resample')")
		return
	}
	rep := report.Build(r.raw, r.sampled, r.resampler.IntervalMinutes(), time.Time{})
	rep.Fprint(os.Stdout)
}

func (r *REPL) cmdExport(args []string) {
	if r.sampled == nil {
		fmt.Println("nothing resampled yet (try 'resample')")
		return
	}

	path := filepath.Join(r.cfg.Export.Dir, fmt.Sprintf("sampled-%d.parquet", time.Now().Unix()))
	if len(args) > 0 {
		path = args[0]
	}

	opts := parquet.Options{
		Compression:      parquet.ParseCompressionType(r.cfg.Export.Compression.Algorithm),
		CompressionLevel: r.cfg.Export.Compression.Level,
	}
	if err := parquet.WriteFile(path, r.sampled, opts); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Printf("wrote %d rows to %s\n", len(r.sampled), path)
}

func (r *REPL) cmdSQL(stmt string) {
	if stmt == "" {
		fmt.Println("usage: sql <query>")
		return
	}

	svc, err := query.New(r.cfg, r.cfg.Export.Dir)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer svc.Close()

	rows, err := svc.ExecuteSQL(context.Background(), stmt)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	for _, row := range rows {
		fmt.Println(row)
	}
	fmt.Printf("(%d rows)\n", len(rows))
}
