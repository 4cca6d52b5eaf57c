package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/selimozcann/LinkGuard/internal/engine"
	"github.com/selimozcann/LinkGuard/internal/model"
	"github.com/selimozcann/LinkGuard/internal/output"
)

type batchOptions struct {
	file        string
	workers     int
	rateLimit   int
	outputJSONL string
	outputHTML  string
	onlyRisky   bool
	quiet       bool
}

func newBatchCmd(opts *globalOptions) *cobra.Command {
	var bo batchOptions
	c := &cobra.Command{
		Use:   "batch",
		Short: "Review every link in a file, one per line",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			return runBatch(cmd, a, bo)
		}),
	}
	f := c.Flags()
	f.StringVarP(&bo.file, "file", "f", "", "Input file with one URL per line")
	f.IntVarP(&bo.workers, "threads", "t", 10, "Concurrent reviews")
	f.IntVar(&bo.rateLimit, "rl", 0, "Reviews started per second (0 = unlimited)")
	f.StringVarP(&bo.outputJSONL, "output", "o", "", "JSONL output file")
	f.StringVar(&bo.outputHTML, "html", "", "HTML report output file")
	f.BoolVar(&bo.onlyRisky, "only-risky", false, "Only print links that were warned or blocked")
	f.BoolVar(&bo.quiet, "quiet", false, "Hide the progress bar and per-link output")
	_ = c.MarkFlagRequired("file")
	return c
}

func runBatch(cmd *cobra.Command, a *app, bo batchOptions) error {
	if bo.workers <= 0 {
		return fmt.Errorf("--threads must be greater than zero (got %d)", bo.workers)
	}
	if bo.rateLimit < 0 {
		return fmt.Errorf("--rl must be >= 0 (got %d)", bo.rateLimit)
	}
	targets, err := loadTargets(bo.file)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return errors.New("no links to review")
	}

	var bar *progressbar.ProgressBar
	if !bo.quiet {
		bar = progressbar.NewOptions(len(targets),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(50),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription("[cyan]Reviewing links[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}))
	}

	a.logger.Debug("batch starting", "targets", len(targets), "workers", bo.workers, "rate_limit", bo.rateLimit)
	reps := a.engine.ReviewBatch(cmd.Context(), targets, engine.BatchConfig{
		Workers:   bo.workers,
		RateLimit: bo.rateLimit,
		Progress: func(done, total int, _ engine.Report) {
			if bar != nil {
				_ = bar.Add(1)
			}
		},
	})
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(cmd.ErrOrStderr())
	}

	if !bo.quiet {
		for _, rep := range reps {
			if bo.onlyRisky && rep.Verdict == model.VerdictAllow && rep.Error == "" {
				continue
			}
			output.PrintReport(a.out, rep)
		}
		sum := output.BuildSummary(reps)
		fmt.Fprintf(a.out, "\n%d links: %d allowed, %d warned, %d blocked, %d errors\n",
			sum.TotalTargets, sum.Allowed, sum.Warned, sum.Blocked, sum.Errors)
	}

	if bo.outputJSONL != "" {
		if err := writeJSONLFile(bo.outputJSONL, reps); err != nil {
			return err
		}
		a.logger.Info("JSONL report written", "path", bo.outputJSONL)
	}
	if bo.outputHTML != "" {
		page := output.BuildPage("LinkGuard Report", time.Now().UTC(), buildParamsMap(bo, len(targets)), reps)
		if err := writeHTMLFile(bo.outputHTML, page); err != nil {
			return err
		}
		a.logger.Info("HTML report written", "path", bo.outputHTML)
	}
	return nil
}

// loadTargets reads one URL per line, skipping blanks and # comments.
func loadTargets(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input %q: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	var entries []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("input read error: %w", err)
	}
	return entries, nil
}

func buildParamsMap(bo batchOptions, targetCount int) map[string]string {
	params := map[string]string{
		"input":       bo.file,
		"threads":     strconv.Itoa(bo.workers),
		"rate_limit":  strconv.Itoa(bo.rateLimit),
		"only_risky":  strconv.FormatBool(bo.onlyRisky),
		"links_total": strconv.Itoa(targetCount),
	}
	if bo.outputJSONL != "" {
		params["output_jsonl"] = bo.outputJSONL
	}
	if bo.outputHTML != "" {
		params["output_html"] = bo.outputHTML
	}
	return params
}

func writeJSONLFile(path string, reps []engine.Report) error {
	if err := ensureDir(path); err != nil {
		return fmt.Errorf("create JSONL directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create JSONL file: %w", err)
	}
	defer f.Close()
	w := output.NewJSONLWriter(f)
	for _, rep := range reps {
		if err := w.Write(rep); err != nil {
			return fmt.Errorf("write JSONL: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("write JSONL: %w", err)
	}
	return nil
}

func writeHTMLFile(path string, page output.PageData) error {
	if err := ensureDir(path); err != nil {
		return fmt.Errorf("create HTML directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create HTML file: %w", err)
	}
	defer f.Close()
	if err := output.RenderHTML(f, page); err != nil {
		return fmt.Errorf("write HTML: %w", err)
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
