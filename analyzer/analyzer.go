// Package analyzer exposes a rule set as a go/analysis Analyzer, so rules
// can run under go vet style drivers.
package analyzer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"golang.org/x/tools/go/analysis"

	"github.com/gnolang/astrule/internal"
	"github.com/gnolang/astrule/internal/rules"
	tt "github.com/gnolang/astrule/internal/types"
	"github.com/gnolang/astrule/lint"
)

const doc = `report syntax nodes matching astrule rules

The rule document is given with -spec. Only rules whose name starts with an
upper-case letter are reported unless -select says otherwise.`

// Analyzer loads its rules from the -spec flag.
var Analyzer = newFlagAnalyzer()

type flagRunner struct {
	spec, sel, unsel string

	mu      sync.Mutex
	engines map[string]*internal.Engine
}

func newFlagAnalyzer() *analysis.Analyzer {
	r := &flagRunner{engines: make(map[string]*internal.Engine)}
	a := &analysis.Analyzer{
		Name: "astrule",
		Doc:  doc,
		Run:  r.run,
	}
	a.Flags.StringVar(&r.spec, "spec", "", "path to the YAML rule document")
	a.Flags.StringVar(&r.sel, "select", "[A-Z].*", "rules to report (regexp, full match)")
	a.Flags.StringVar(&r.unsel, "unselect", "", "rules to drop (regexp, full match)")
	return a
}

func (r *flagRunner) engine() (*internal.Engine, error) {
	if r.spec == "" {
		return nil, errors.New("astrule: -spec is required")
	}
	key := r.spec + "\x00" + r.sel + "\x00" + r.unsel

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.engines[key]; ok {
		return e, nil
	}
	set, err := lint.LoadRules(r.spec)
	if err != nil {
		return nil, err
	}
	include, exclude, err := selectors(r.sel, r.unsel)
	if err != nil {
		return nil, err
	}
	e, err := internal.NewEngine(set, internal.WithSelection(include, exclude))
	if err != nil {
		return nil, err
	}
	r.engines[key] = e
	return e, nil
}

func (r *flagRunner) run(pass *analysis.Pass) (any, error) {
	e, err := r.engine()
	if err != nil {
		return nil, err
	}
	return nil, report(pass, e)
}

// New returns an analyzer running the selected rules of set.
func New(set *rules.RuleSet, opts ...internal.Option) (*analysis.Analyzer, error) {
	e, err := internal.NewEngine(set, opts...)
	if err != nil {
		return nil, err
	}
	return &analysis.Analyzer{
		Name: "astrule",
		Doc:  doc,
		Run: func(pass *analysis.Pass) (any, error) {
			return nil, report(pass, e)
		},
	}, nil
}

func report(pass *analysis.Pass, e *internal.Engine) error {
	for _, f := range pass.Files {
		issues, err := e.RunFile(context.Background(), f, pass.Fset)
		if err != nil {
			return err
		}
		file := pass.Fset.File(f.Pos())
		for _, issue := range issues {
			pass.Report(analysis.Diagnostic{
				Pos:      file.Pos(issue.Start.Offset),
				End:      file.Pos(issue.End.Offset),
				Category: issue.Rule,
				Message:  message(issue),
			})
		}
	}
	return nil
}

func message(issue tt.Issue) string {
	msg := fmt.Sprintf("%s: %s", issue.Rule, issue.Kind)
	if len(issue.Captures) == 0 {
		return msg
	}
	parts := make([]string, len(issue.Captures))
	for i, c := range issue.Captures {
		parts[i] = c.Name + "=" + c.Value
	}
	return msg + " (" + strings.Join(parts, ", ") + ")"
}
