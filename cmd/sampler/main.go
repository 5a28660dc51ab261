// sampler resamples medical sensor measurements onto a fixed interval grid.
//
// Typical uses:
//
//	sampler -interval 5 readings.csv
//	sampler -type TEMP -grouped readings.json
//	sampler -export out/sampled.parquet readings.csv
//	sampler -sql "SELECT type, count(*) FROM read_parquet('out/*.parquet') GROUP BY type"
//	sampler -repl
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/tejas7777/data-sampler/internal/config"
	"github.com/tejas7777/data-sampler/internal/ingest"
	"github.com/tejas7777/data-sampler/internal/logging"
	"github.com/tejas7777/data-sampler/internal/measurement"
	"github.com/tejas7777/data-sampler/internal/parquet"
	"github.com/tejas7777/data-sampler/internal/query"
	"github.com/tejas7777/data-sampler/internal/repl"
	"github.com/tejas7777/data-sampler/internal/report"
	"github.com/tejas7777/data-sampler/internal/sampler"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// CLI flags
	cfgPath := flag.String("config", "config.yaml", "config file path")
	interval := flag.Int("interval", 0, "sampling interval in minutes (overrides config)")
	start := flag.String("start", "", "start of sampling anchor (2006-01-02T15:04:05)")
	typeName := flag.String("type", "", "restrict to one measurement type (SPO2, HR, TEMP)")
	format := flag.String("format", "auto", "input format: auto, csv, json")
	grouped := flag.Bool("grouped", false, "print output grouped by type")
	withReport := flag.Bool("report", false, "print a resampling report")
	exportPath := flag.String("export", "", "write resampled output to a Parquet file")
	exportRaw := flag.Bool("raw", false, "export the raw series instead of the resampled one")
	sqlStmt := flag.String("sql", "", "run a SQL query over the export directory and exit")
	series := flag.Bool("series", false, "query the exported series and exit")
	from := flag.String("from", "", "series query start time")
	to := flag.String("to", "", "series query end time")
	replMode := flag.Bool("repl", false, "start the interactive prompt")
	debug := flag.Bool("debug", false, "enable debug logging")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("sampler %s\n", Version)
		return
	}

	// Load config
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg = config.DefaultConfig()
		} else {
			fatal("load config: %v", err)
		}
	}

	initLogging(cfg, *debug)
	log := logging.Component("cli")

	if *interval != 0 {
		cfg.Sampler.IntervalMinutes = *interval
	}

	switch {
	case *replMode:
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			fatal("repl requires an interactive terminal")
		}
		session, err := repl.New(cfg)
		if err != nil {
			fatal("%v", err)
		}
		session.Run()
		return

	case *sqlStmt != "":
		runSQL(cfg, *sqlStmt)
		return

	case *series:
		runSeries(cfg, *typeName, *from, *to)
		return
	}

	// Resampling mode: input files are positional arguments.
	paths := flag.Args()
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "usage: sampler [flags] <input file...>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	inFormat, err := ingest.ParseFormat(*format)
	if err != nil {
		fatal("%v", err)
	}

	raw, result, err := ingest.LoadFiles(context.Background(), paths, inFormat)
	if err != nil {
		fatal("load input: %v", err)
	}
	log.Info("input loaded", "files", len(paths), "measurements", result.Loaded, "skipped", result.Failed)
	for _, msg := range result.Errors {
		log.Warn("record skipped", "reason", msg)
	}

	rs, err := sampler.New(cfg.Sampler.IntervalMinutes)
	if err != nil {
		fatal("%v", err)
	}

	opts, err := buildOptions(*start)
	if err != nil {
		fatal("%v", err)
	}

	var sampled []measurement.Measurement
	if *typeName != "" {
		typ, err := measurement.ParseType(*typeName)
		if err != nil {
			fatal("%v", err)
		}
		sampled, err = rs.ResampleByType(raw, typ, opts)
		if err != nil {
			fatal("resample: %v", err)
		}
	} else {
		sampled, err = rs.Resample(raw, opts)
		if err != nil {
			fatal("resample: %v", err)
		}
	}

	if *exportPath != "" {
		out := sampled
		if *exportRaw {
			out = raw
		}
		popts := parquet.Options{
			Compression:      parquet.ParseCompressionType(cfg.Export.Compression.Algorithm),
			CompressionLevel: cfg.Export.Compression.Level,
		}
		if err := parquet.WriteFile(*exportPath, out, popts); err != nil {
			fatal("export: %v", err)
		}
		log.Info("series exported", "path", *exportPath, "rows", len(out))
	}

	if *grouped {
		groupedOut, err := rs.ResampleGrouped(raw, opts)
		if err != nil {
			fatal("resample: %v", err)
		}
		sampler.PrintGrouped(groupedOut)
	} else {
		sampler.Print(sampled)
	}

	if *withReport {
		var startOfSampling time.Time
		if opts != nil {
			startOfSampling = opts.StartOfSampling
		}
		rep := report.Build(raw, sampled, rs.IntervalMinutes(), startOfSampling)
		rep.Fprint(os.Stdout)
	}
}

// initLogging configures the global logger from config and flags.
func initLogging(cfg *config.Config, debug bool) {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if debug {
		level = slog.LevelDebug
	}
	logging.Init(level, cfg.Logging.JSON)
}

// buildOptions turns the -start flag into resample options.
func buildOptions(start string) (*sampler.Options, error) {
	if start == "" {
		return nil, nil
	}

	anchor, err := parseTimeFlag(start)
	if err != nil {
		return nil, err
	}
	return &sampler.Options{StartOfSampling: anchor}, nil
}

func parseTimeFlag(s string) (time.Time, error) {
	for _, layout := range []string{measurement.TimeLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q (want %s)", s, measurement.TimeLayout)
}

// runSQL executes an ad-hoc SQL statement against the export directory.
func runSQL(cfg *config.Config, stmt string) {
	svc, err := query.New(cfg, cfg.Export.Dir)
	if err != nil {
		fatal("%v", err)
	}
	defer svc.Close()

	rows, err := svc.ExecuteSQL(context.Background(), stmt)
	if err != nil {
		fatal("query: %v", err)
	}

	for _, row := range rows {
		fmt.Println(row)
	}
	fmt.Printf("(%d rows)\n", len(rows))
}

// runSeries queries the exported measurement series.
func runSeries(cfg *config.Config, typeName, from, to string) {
	svc, err := query.New(cfg, cfg.Export.Dir)
	if err != nil {
		fatal("%v", err)
	}
	defer svc.Close()

	var q query.SeriesQuery
	if typeName != "" {
		typ, err := measurement.ParseType(typeName)
		if err != nil {
			fatal("%v", err)
		}
		q.Type = typ
	}
	if from != "" {
		if q.Start, err = parseTimeFlag(from); err != nil {
			fatal("%v", err)
		}
	}
	if to != "" {
		if q.End, err = parseTimeFlag(to); err != nil {
			fatal("%v", err)
		}
	}

	ms, err := svc.QuerySeries(context.Background(), q)
	if err != nil {
		fatal("query: %v", err)
	}
	sampler.Print(ms)
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "sampler: "+format+"\n", args...)
	os.Exit(1)
}
