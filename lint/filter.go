package lint

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gobwas/glob"
)

// compiledPattern keeps the source pattern next to its glob.
type compiledPattern struct {
	pattern string
	glob    glob.Glob
	// root matches "**/x" patterns against x at the root
	root glob.Glob
}

// Filter selects files by slash-separated path relative to the walked root.
// A path is accepted when it matches an include pattern (or there are none)
// and no exclude pattern.
type Filter struct {
	include []compiledPattern
	exclude []compiledPattern
}

// NewFilter compiles the include and exclude glob patterns.
func NewFilter(include, exclude []string) (*Filter, error) {
	f := &Filter{}
	var err error
	if f.include, err = compilePatterns(include); err != nil {
		return nil, err
	}
	if f.exclude, err = compilePatterns(exclude); err != nil {
		return nil, err
	}
	return f, nil
}

func compilePatterns(patterns []string) ([]compiledPattern, error) {
	out := make([]compiledPattern, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, errors.Wrapf(err, "invalid glob pattern %q", p)
		}
		cp := compiledPattern{pattern: p, glob: g}
		if simplified, ok := strings.CutPrefix(p, "**/"); ok {
			if cp.root, err = glob.Compile(simplified, '/'); err != nil {
				return nil, errors.Wrapf(err, "invalid glob pattern %q", p)
			}
		}
		out = append(out, cp)
	}
	return out, nil
}

// Accept reports whether the file at relPath is processed.
func (f *Filter) Accept(relPath string) bool {
	if f == nil {
		return true
	}
	if matchesAny(relPath, f.exclude) {
		return false
	}
	return len(f.include) == 0 || matchesAny(relPath, f.include)
}

// SkipDir reports whether a whole directory is excluded, e.g. "vendor" by
// "vendor/**".
func (f *Filter) SkipDir(relPath string) bool {
	if f == nil || relPath == "." {
		return false
	}
	return matchesAny(relPath+"/**", f.exclude)
}

func matchesAny(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) || cp.root != nil && cp.root.Match(path) {
			return true
		}
	}
	return false
}
