package internal

import (
	"context"
	"fmt"
	"go/ast"
	"go/token"
	"os"
	"regexp"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/gnolang/astrule/internal/goast"
	"github.com/gnolang/astrule/internal/nolint"
	"github.com/gnolang/astrule/internal/pattern"
	"github.com/gnolang/astrule/internal/rules"
	"github.com/gnolang/astrule/internal/term"
	tt "github.com/gnolang/astrule/internal/types"
)

// cancelCheckInterval is how many nodes a rule matches between context checks.
const cancelCheckInterval = 256

// Engine matches a compiled rule set against Go files.
type Engine struct {
	set      *rules.RuleSet
	selected []string
	order    map[string]int
	severity func(rule string) tt.Severity
	cache    *Cache
	logger   *zap.Logger

	include, exclude *regexp.Regexp
}

// Option configures an Engine.
type Option func(*Engine)

// WithSelection keeps the rules fully matching include and not fully
// matching exclude. A nil regexp is ignored.
func WithSelection(include, exclude *regexp.Regexp) Option {
	return func(e *Engine) {
		e.include, e.exclude = include, exclude
	}
}

// WithSeverity sets the severity lookup. Rules reported as SeverityOff are
// not run.
func WithSeverity(severity func(rule string) tt.Severity) Option {
	return func(e *Engine) {
		e.severity = severity
	}
}

// WithCache enables result caching for files read from disk.
func WithCache(c *Cache) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithLogger sets the logger used by the engine. A nil logger is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an engine for set.
func NewEngine(set *rules.RuleSet, opts ...Option) (*Engine, error) {
	if set == nil {
		return nil, errors.New("nil rule set")
	}
	e := &Engine{
		set:      set,
		severity: func(string) tt.Severity { return tt.SeverityError },
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.order = make(map[string]int)
	for _, name := range set.Select(e.include, e.exclude) {
		if e.severity(name) == tt.SeverityOff {
			continue
		}
		e.order[name] = len(e.selected)
		e.selected = append(e.selected, name)
	}
	return e, nil
}

// Rules returns the names of the rules the engine runs, in document order.
func (e *Engine) Rules() []string {
	out := make([]string, len(e.selected))
	copy(out, e.selected)
	return out
}

// Run matches the selected rules against a file on disk.
func (e *Engine) Run(ctx context.Context, filename string) ([]tt.Issue, error) {
	if e.cache != nil {
		if issues, ok := e.cache.Get(filename); ok {
			e.logger.Debug("cache hit", zap.String("file", filename))
			return issues, nil
		}
	}

	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", filename)
	}
	issues, err := e.RunSource(ctx, filename, src)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if err := e.cache.Set(filename, issues); err != nil {
			e.logger.Warn("failed to cache results", zap.String("file", filename), zap.Error(err))
		}
	}
	return issues, nil
}

// RunSource matches the selected rules against Go source. filename is used
// for positions only.
func (e *Engine) RunSource(ctx context.Context, filename string, src []byte) ([]tt.Issue, error) {
	fset := token.NewFileSet()
	f, err := goast.ParseFile(fset, filename, src)
	if err != nil {
		return nil, err
	}
	return e.RunFile(ctx, f, fset)
}

// RunFile matches the selected rules against a parsed file. Each rule runs
// in its own goroutine over the file's nodes in pre-order.
func (e *Engine) RunFile(ctx context.Context, f *ast.File, fset *token.FileSet) ([]tt.Issue, error) {
	nodes := collect(f, fset)
	suppressed := nolint.Parse(f, fset)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		allIssues []tt.Issue
	)
	for _, name := range e.selected {
		p, ok := e.set.Pattern(name)
		if !ok {
			continue
		}
		wg.Add(1)
		go func(rule string, p pattern.Pattern) {
			defer wg.Done()
			issues := e.matchRule(ctx, rule, p, nodes, suppressed)

			mu.Lock()
			allIssues = append(allIssues, issues...)
			mu.Unlock()
		}(name, p)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "matching interrupted")
	}

	sort.SliceStable(allIssues, func(i, j int) bool {
		a, b := allIssues[i], allIssues[j]
		if a.Rule != b.Rule {
			return e.order[a.Rule] < e.order[b.Rule]
		}
		return a.Start.Offset < b.Start.Offset
	})
	return allIssues, nil
}

func (e *Engine) matchRule(
	ctx context.Context,
	rule string,
	p pattern.Pattern,
	nodes []goast.Node,
	suppressed *nolint.Index,
) []tt.Issue {
	var issues []tt.Issue
	for i, n := range nodes {
		if i%cancelCheckInterval == 0 && ctx.Err() != nil {
			return nil
		}
		captures, fail := pattern.Match(p, term.ToTerm(n))
		if fail != nil {
			continue
		}
		start := n.Start()
		if suppressed.Suppressed(start.Line, rule) {
			continue
		}
		issues = append(issues, tt.Issue{
			Rule:     rule,
			Filename: start.Filename,
			Kind:     string(n.Kind()),
			Message:  fmt.Sprintf("%s matches rule %s", n.Kind(), rule),
			Severity: e.severity(rule),
			Start:    start,
			End:      n.End(),
			Captures: renderCaptures(captures),
		})
	}
	return issues
}

// Explanation describes why a rule did or did not match one node.
type Explanation struct {
	Kind     string
	Start    token.Position
	Source   string
	Captures []tt.Capture
	Failure  *pattern.Failure
}

// Explain matches rule against every node starting on line and reports the
// outcome for each. The rule does not need to be selected.
func (e *Engine) Explain(filename string, src []byte, rule string, line int) ([]Explanation, error) {
	p, ok := e.set.Pattern(rule)
	if !ok {
		return nil, errors.Newf("unknown rule %q", rule)
	}

	fset := token.NewFileSet()
	f, err := goast.ParseFile(fset, filename, src)
	if err != nil {
		return nil, err
	}

	var out []Explanation
	for _, n := range collect(f, fset) {
		start := n.Start()
		if start.Line != line {
			continue
		}
		captures, fail := pattern.Match(p, term.ToTerm(n))
		out = append(out, Explanation{
			Kind:     string(n.Kind()),
			Start:    start,
			Source:   n.Summary(),
			Captures: renderCaptures(captures),
			Failure:  fail,
		})
	}
	return out, nil
}

func collect(f *ast.File, fset *token.FileSet) []goast.Node {
	var nodes []goast.Node
	goast.Walk(f, fset, func(n goast.Node) {
		nodes = append(nodes, n)
	})
	return nodes
}

func renderCaptures(captures pattern.Captures) []tt.Capture {
	if len(captures) == 0 {
		return nil
	}
	out := make([]tt.Capture, 0, len(captures))
	for name, value := range captures {
		out = append(out, tt.Capture{Name: name, Value: term.String(value)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
