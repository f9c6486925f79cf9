package lint

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/gnolang/astrule/internal"
	"github.com/gnolang/astrule/internal/config"
	"github.com/gnolang/astrule/internal/ffi"
	"github.com/gnolang/astrule/internal/goast"
	"github.com/gnolang/astrule/internal/rules"
	tt "github.com/gnolang/astrule/internal/types"
)

// MatchEngine is the part of the engine the processing helpers use.
type MatchEngine interface {
	Run(ctx context.Context, filename string) ([]tt.Issue, error)
	RunSource(ctx context.Context, filename string, src []byte) ([]tt.Issue, error)
}

// Processor matches one file.
type Processor func(ctx context.Context, engine MatchEngine, path string) ([]tt.Issue, error)

// Options controls directory processing.
type Options struct {
	// Filter selects files found while walking directories. Paths given
	// explicitly are always processed.
	Filter *Filter
	// Progress receives a progress bar for directory runs; nil disables it.
	Progress io.Writer
	// Workers bounds concurrent files; zero means one per CPU.
	Workers int
}

// LoadRules reads and compiles a rule document with the built-in predicates
// and the go/ast node kinds.
func LoadRules(specPath string) (*rules.RuleSet, error) {
	data, err := os.ReadFile(specPath)
	if err != nil {
		return nil, errors.Wrapf(err, "reading rule document %s", specPath)
	}
	set, err := CompileRules(data)
	if err != nil {
		return nil, errors.Wrapf(err, "compiling %s", specPath)
	}
	return set, nil
}

// CompileRules compiles a rule document held in memory.
func CompileRules(data []byte) (*rules.RuleSet, error) {
	return rules.CompileYAML(data,
		rules.WithFFI(ffi.Default().Lookup),
		rules.WithKinds(goast.Kinds()),
	)
}

// New builds an engine from cfg: it compiles cfg.Spec, applies the rule
// selection and severities, and opens the result cache when enabled.
func New(cfg *config.Config, logger *zap.Logger) (*internal.Engine, error) {
	set, err := LoadRules(cfg.Spec)
	if err != nil {
		return nil, err
	}
	include, err := cfg.SelectRegexp()
	if err != nil {
		return nil, err
	}
	exclude, err := cfg.UnselectRegexp()
	if err != nil {
		return nil, err
	}

	opts := []internal.Option{
		internal.WithSelection(include, exclude),
		internal.WithSeverity(cfg.SeverityOf),
		internal.WithLogger(logger),
	}
	if cfg.Cache.Enabled {
		cache, err := internal.NewCache(cfg.Cache.Dir, fingerprint(cfg), cfg.Spec)
		if err != nil {
			return nil, err
		}
		opts = append(opts, internal.WithCache(cache))
	}
	return internal.NewEngine(set, opts...)
}

// fingerprint identifies the settings that change match results besides the
// rule document itself.
func fingerprint(cfg *config.Config) string {
	severities := make([]string, 0, len(cfg.Severity))
	for rule, level := range cfg.Severity {
		severities = append(severities, strings.ToLower(rule)+"="+strings.ToLower(level))
	}
	sort.Strings(severities)
	return fmt.Sprintf("select=%s;unselect=%s;severity=%s", cfg.Select, cfg.Unselect, strings.Join(severities, ","))
}

// ProcessFiles processes every path, files and directories alike.
func ProcessFiles(
	ctx context.Context,
	logger *zap.Logger,
	engine MatchEngine,
	paths []string,
	opts Options,
	processor Processor,
) ([]tt.Issue, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var allIssues []tt.Issue
	for _, path := range paths {
		issues, err := ProcessPath(ctx, logger, engine, path, opts, processor)
		if err != nil {
			logger.Error("Error processing path", zap.String("path", path), zap.Error(err))
			return nil, err
		}
		allIssues = append(allIssues, issues...)
	}
	return allIssues, nil
}

// ProcessPath processes a file, or every accepted Go file below a directory
// using a bounded pool of workers. Files that fail to parse are logged and
// skipped in directory mode.
func ProcessPath(
	ctx context.Context,
	logger *zap.Logger,
	engine MatchEngine,
	path string,
	opts Options,
	processor Processor,
) ([]tt.Issue, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error accessing %s", path)
	}
	if !info.IsDir() {
		if !isGoFile(path) {
			return nil, nil
		}
		return processor(ctx, engine, path)
	}

	files, err := CollectFiles(path, opts.Filter)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var bar *progressbar.ProgressBar
	if opts.Progress != nil {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(opts.Progress),
			progressbar.OptionSetDescription(path),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}))
	}

	type result struct {
		issues []tt.Issue
		err    error
	}
	results := make(chan result, len(files))
	sem := make(chan struct{}, workers)

	started := 0
	for _, file := range files {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		started++
		go func(fp string) {
			defer func() { <-sem }()

			issues, err := processor(ctx, engine, fp)
			if err != nil {
				logger.Error("Error processing file", zap.String("file", fp), zap.Error(err))
			}
			if bar != nil {
				_ = bar.Add(1)
			}
			results <- result{issues: issues, err: err}
		}(file)
	}

	var issues []tt.Issue
	for range started {
		r := <-results
		if r.err != nil {
			continue
		}
		issues = append(issues, r.issues...)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "processing interrupted")
	}

	SortIssues(issues)
	return issues, nil
}

// CollectFiles returns the Go files below root accepted by filter, sorted.
func CollectFiles(root string, filter *Filter) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if filter.SkipDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if isGoFile(path) && filter.Accept(rel) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walking %s", root)
	}
	sort.Strings(files)
	return files, nil
}

// SortIssues orders issues by file, then position. Issues of one node keep
// their relative order.
func SortIssues(issues []tt.Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		return a.Start.Offset < b.Start.Offset
	})
}

// ProcessFile matches a file on disk.
func ProcessFile(ctx context.Context, engine MatchEngine, path string) ([]tt.Issue, error) {
	return engine.Run(ctx, path)
}

// ProcessSource matches source held in memory.
func ProcessSource(ctx context.Context, engine MatchEngine, filename string, src []byte) ([]tt.Issue, error) {
	return engine.RunSource(ctx, filename, src)
}

func isGoFile(path string) bool {
	return filepath.Ext(path) == ".go"
}
