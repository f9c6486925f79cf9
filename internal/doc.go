// Package internal runs compiled rule sets over Go source files.
//
// Engine: matches every selected rule against every syntax node of a file.
// Each rule runs in its own goroutine; the rule set is frozen so the
// patterns are shared read-only. Matches on lines covered by a //nolint
// directive are dropped.
//
// Cache: per-file results on disk, reused while the file, the rule document
// and the run configuration are unchanged.
//
// Watch: re-runs the engine when a Go file is written.
//
// Usage:
//
//	set, err := rules.CompileYAML(doc, rules.WithFFI(ffi.Default().Lookup))
//	if err != nil {
//	    // handle error
//	}
//
//	engine, err := internal.NewEngine(set, internal.WithSelection(include, nil))
//	if err != nil {
//	    // handle error
//	}
//
//	issues, err := engine.Run(ctx, "path/to/file.go")
//	if err != nil {
//	    // handle error
//	}
//
//	for _, issue := range issues {
//	    fmt.Printf("%s: %s at %s\n", issue.Rule, issue.Kind, issue.Start)
//	}
package internal
