package core

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/SimonSchneider/goslu/config"
	"github.com/SimonSchneider/goslu/srvu"
	"github.com/SimonSchneider/pefisim/internal/finance"
	"github.com/SimonSchneider/pefisim/internal/montecarlo"
	"github.com/SimonSchneider/pefisim/internal/report"
	"github.com/SimonSchneider/pefisim/internal/resultdb"
	"github.com/SimonSchneider/pefisim/internal/scenario"
	"github.com/SimonSchneider/pefisim/internal/ui"
)

func Run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer, getEnv func(string) string, getwd func() (string, error)) error {
	cfg, err := parseConfig(args[1:], getEnv)
	if err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, os.Kill)
	defer cancel()
	logger := srvu.LogToOutput(log.New(stdout, "", log.LstdFlags|log.Lshortfile))

	wd, err := getwd()
	if err != nil {
		return fmt.Errorf("failed to get working dir: %w", err)
	}
	return Simulate(ctx, cfg.resolve(wd), logger, stdout)
}

type Config struct {
	Scenarios string
	Trials    string
	Workers   int
	Seed      int64
	Out       string
	Chart     string
	SeriesDir string
	Series    int
	DbURL     string
	Note      string
	Baseline  string
	Bins      int
	Verbose   bool
}

func parseConfig(args []string, getEnv func(string) string) (cfg Config, err error) {
	cfg = Config{Scenarios: "scenarios.toml", Trials: "1k", Bins: 30, Series: 10}
	err = config.ParseInto(&cfg, flag.NewFlagSet("", flag.ExitOnError), args, getEnv)
	return cfg, err
}

// resolve makes every file path absolute against wd.
func (c Config) resolve(wd string) Config {
	for _, p := range []*string{&c.Scenarios, &c.Out, &c.Chart, &c.SeriesDir} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(wd, *p)
		}
	}
	return c
}

type Logger interface {
	Printf(format string, v ...any)
}

// Simulate loads the scenarios, runs the trials and writes the requested
// outputs. The summary always goes to stdout.
func Simulate(ctx context.Context, cfg Config, logger Logger, stdout io.Writer) error {
	trials, err := ui.ParseHumanNumber(ui.ParseInt)(cfg.Trials)
	if err != nil {
		return fmt.Errorf("parsing trials %q: %w", cfg.Trials, err)
	}
	if cfg.Bins <= 0 {
		cfg.Bins = 30
	}
	scenarios, err := scenario.LoadFile(cfg.Scenarios)
	if err != nil {
		return err
	}
	logger.Printf("loaded %d scenarios from %s", len(scenarios), cfg.Scenarios)

	runner := montecarlo.Runner{
		Trials:   trials,
		Workers:  cfg.Workers,
		Seed:     cfg.Seed,
		Recorder: newLogRecorder(logger, cfg.Verbose),
		Progress: progressLogger(logger, trials),
	}
	if cfg.SeriesDir != "" {
		runner.KeepSeries = cfg.Series
	}
	start := time.Now()
	results, err := runner.Run(ctx, scenario.MonteCarlo(scenarios)...)
	if err != nil {
		return fmt.Errorf("running trials: %w", err)
	}
	logger.Printf("ran %d trials of %d scenarios in %s", trials, len(scenarios), time.Since(start).Round(time.Millisecond))
	for _, f := range results.Failures() {
		logger.Printf("trial %d of %q failed: %s", f.Trial, f.Scenario, f.Err)
	}
	return writeOutputs(ctx, cfg, logger, stdout, results)
}

func writeOutputs(ctx context.Context, cfg Config, logger Logger, stdout io.Writer, results *montecarlo.Results) error {
	table := results.Table()
	if cfg.Out != "" {
		if err := writeFile(cfg.Out, func(w io.Writer) error { return report.WriteCSV(w, table) }); err != nil {
			return err
		}
		logger.Printf("wrote results to %s", cfg.Out)
	}
	if cfg.Chart != "" {
		if err := writeFile(cfg.Chart, func(w io.Writer) error { return report.RenderHistogram(w, table, cfg.Bins) }); err != nil {
			return err
		}
		logger.Printf("wrote histogram to %s", cfg.Chart)
	}
	if cfg.SeriesDir != "" {
		if err := os.MkdirAll(cfg.SeriesDir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", cfg.SeriesDir, err)
		}
		for _, name := range results.Scenarios() {
			path := filepath.Join(cfg.SeriesDir, name+".png")
			paths := results.Series(name)
			if err := writeFile(path, func(w io.Writer) error { return report.RenderSeries(w, name, paths) }); err != nil {
				return err
			}
		}
		logger.Printf("wrote net worth paths to %s", cfg.SeriesDir)
	}
	if cfg.DbURL != "" {
		db, err := resultdb.Open(ctx, cfg.DbURL)
		if err != nil {
			return err
		}
		defer db.Close()
		run, err := db.SaveRun(ctx, cfg.Note, cfg.Seed, table)
		if err != nil {
			return err
		}
		logger.Printf("saved run %s to %s", run.ID, cfg.DbURL)
	}

	summaries, err := report.Summarize(table, cfg.Bins)
	if err != nil {
		return err
	}
	for _, s := range results.Scenarios() {
		if n := results.Declines(s); n > 0 {
			logger.Printf("%q: %d movements declined for insufficient funds", s, n)
		}
	}
	if err := report.WriteSummary(stdout, summaries); err != nil {
		return err
	}
	if cfg.Baseline == "" {
		return nil
	}
	rel, err := report.Relative(table, cfg.Baseline)
	if err != nil {
		return err
	}
	relSummaries, err := report.Summarize(rel, cfg.Bins)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout)
	return report.WriteSummary(stdout, relSummaries)
}

func writeFile(path string, write func(w io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func newLogRecorder(logger Logger, verbose bool) finance.Recorder {
	if !verbose {
		return nil
	}
	return finance.CompositeRecorder{
		DeclineRecorder: finance.DeclineRecorderFunc(func(m finance.Movement) error {
			logger.Printf("%s: declined %s %s -> %s of %s", m.Day, m.Kind, m.Source, m.Destination, ui.FormatWithThousands(m.Amount))
			return nil
		}),
	}
}

// progressLogger logs roughly every tenth of the trials.
func progressLogger(logger Logger, total int) func(done, total int) {
	step := max(total/10, 1)
	return func(done, total int) {
		if done%step == 0 || done == total {
			logger.Printf("completed %d/%d trials", done, total)
		}
	}
}
