package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/astrule/formatter"
	"github.com/gnolang/astrule/internal"
	tt "github.com/gnolang/astrule/internal/types"
	"github.com/gnolang/astrule/lint"
)

var (
	includePatterns []string
	excludePatterns []string
	selectExpr      string
	unselectExpr    string
	matchJSONOutput bool
	sourceOutput    bool
	outPath         string
	watchMode       bool
	noCache         bool
)

var matchCmd = &cobra.Command{
	Use:   "match [paths...]",
	Short: "Report the syntax nodes matching the selected rules",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMatch,
}

func init() {
	matchCmd.Flags().StringSliceVar(&includePatterns, "include", nil, "Glob patterns of files to match")
	matchCmd.Flags().StringSliceVar(&excludePatterns, "exclude", nil, "Glob patterns of files to skip")
	matchCmd.Flags().StringVar(&selectExpr, "select", "", "Regular expression of rules to report")
	matchCmd.Flags().StringVar(&unselectExpr, "unselect", "", "Regular expression of rules to drop")
	matchCmd.Flags().BoolVar(&matchJSONOutput, "json", false, "Output matches in JSON format")
	matchCmd.Flags().BoolVar(&sourceOutput, "source", false, "Show the source lines of every match")
	matchCmd.Flags().StringVarP(&outPath, "output", "o", "", "Output path (when using JSON)")
	matchCmd.Flags().BoolVar(&watchMode, "watch", false, "Keep running and re-match files when they change")
	matchCmd.Flags().BoolVar(&noCache, "no-cache", false, "Disable the result cache")
}

// applyMatchFlags lets flags given on the command line override cfg.
func applyMatchFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("include") {
		cfg.Include = includePatterns
	}
	if flags.Changed("exclude") {
		cfg.Exclude = excludePatterns
	}
	if flags.Changed("select") {
		cfg.Select = selectExpr
	}
	if flags.Changed("unselect") {
		cfg.Unselect = unselectExpr
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
}

func runMatch(cmd *cobra.Command, args []string) error {
	applyMatchFlags(cmd)

	engine, err := lint.New(cfg, logger)
	if err != nil {
		return errors.Wrap(err, "failed to initialize match engine")
	}
	filter, err := lint.NewFilter(cfg.Include, cfg.Exclude)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
	defer cancel()

	opts := lint.Options{Filter: filter}
	if !matchJSONOutput && !color.NoColor {
		opts.Progress = os.Stderr
	}
	issues, err := lint.ProcessFiles(ctx, logger, engine, args, opts, lint.ProcessFile)
	if err != nil {
		return errors.Wrap(err, "error processing files")
	}

	out := cmd.OutOrStdout()
	if err := printIssues(out, issues, engine.Rules(), matchJSONOutput, outPath); err != nil {
		return err
	}

	if watchMode {
		return watch(cmd, engine, filter, args)
	}
	if len(issues) > 0 {
		return ErrMatchesFound
	}
	return nil
}

func printIssues(out io.Writer, issues []tt.Issue, order []string, isJSON bool, jsonOutput string) error {
	if !isJSON {
		var err error
		if sourceOutput {
			err = formatter.Source(out, issues)
		} else {
			err = formatter.Text(out, issues, order)
		}
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, formatter.Summary(issues))
		return err
	}

	if jsonOutput == "" {
		return formatter.JSON(out, issues)
	}
	f, err := os.Create(jsonOutput)
	if err != nil {
		return errors.Wrap(err, "error creating JSON output file")
	}
	defer f.Close()
	if err := formatter.JSON(f, issues); err != nil {
		return errors.Wrap(err, "error writing JSON output file")
	}
	return nil
}

// watch re-matches changed files under the directories among paths until
// interrupted. The configured timeout does not apply.
func watch(cmd *cobra.Command, engine *internal.Engine, filter *lint.Filter, paths []string) error {
	var dirs []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return errors.Wrapf(err, "error accessing %s", p)
		}
		if info.IsDir() {
			dirs = append(dirs, p)
		} else {
			dirs = append(dirs, filepath.Dir(p))
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	accept := func(path string) bool {
		for _, dir := range dirs {
			rel, err := filepath.Rel(dir, path)
			if err != nil || strings.HasPrefix(rel, "..") {
				continue
			}
			return filter.Accept(filepath.ToSlash(rel))
		}
		return false
	}
	out := cmd.OutOrStdout()
	report := func(filename string, issues []tt.Issue) {
		if err := printIssues(out, issues, engine.Rules(), matchJSONOutput, ""); err != nil {
			logger.Error("Error printing matches", zap.String("file", filename), zap.Error(err))
		}
	}
	return engine.Watch(ctx, dirs, accept, report)
}
