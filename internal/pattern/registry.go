package pattern

import (
	"github.com/cockroachdb/errors"
)

// Registry maps rule names to patterns.
//
// It is built in two phases: every rule name is declared first, which
// allocates a stable slot, and rule bodies are defined afterwards. A Ref
// holds a slot index, so references may point at rules that are defined
// later, including the rule being defined.
//
// Once frozen the registry is read-only and may be shared by concurrent
// matchers.
type Registry struct {
	names  []string
	slots  map[string]int
	bodies []Pattern
	frozen bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{slots: make(map[string]int)}
}

// Declare allocates a slot for name and returns its index. Declaring a name
// twice returns the existing slot.
func (r *Registry) Declare(name string) int {
	r.mustBeOpen()
	if slot, ok := r.slots[name]; ok {
		return slot
	}
	slot := len(r.names)
	r.names = append(r.names, name)
	r.bodies = append(r.bodies, nil)
	r.slots[name] = slot
	return slot
}

// Define sets the pattern of a declared slot.
func (r *Registry) Define(slot int, p Pattern) {
	r.mustBeOpen()
	if slot < 0 || slot >= len(r.bodies) {
		panic(errors.Newf("pattern: slot %d was never declared", slot))
	}
	r.bodies[slot] = p
}

// Freeze ends the build phase.
func (r *Registry) Freeze() {
	r.frozen = true
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	return r.frozen
}

// Ref returns a reference to a declared rule.
func (r *Registry) Ref(name string) (Ref, bool) {
	slot, ok := r.slots[name]
	if !ok {
		return Ref{}, false
	}
	return Ref{Name: name, slot: slot, registry: r}, true
}

// Lookup returns the pattern currently defined for name.
func (r *Registry) Lookup(name string) (Pattern, bool) {
	slot, ok := r.slots[name]
	if !ok || r.bodies[slot] == nil {
		return nil, false
	}
	return r.bodies[slot], true
}

// Names returns the declared names in declaration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of declared rules.
func (r *Registry) Len() int {
	return len(r.names)
}

func (r *Registry) resolve(slot int, name string) Pattern {
	if slot < 0 || slot >= len(r.bodies) || r.bodies[slot] == nil {
		panic(errors.Newf("pattern: rule %q is not defined", name))
	}
	return r.bodies[slot]
}

func (r *Registry) mustBeOpen() {
	if r.frozen {
		panic(errors.New("pattern: registry is frozen"))
	}
}
