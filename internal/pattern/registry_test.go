package pattern

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnolang/astrule/internal/term"
)

func TestRegistryForwardReference(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	useSlot := reg.Declare("use")
	defSlot := reg.Declare("def")

	ref, ok := reg.Ref("def")
	require.True(t, ok)
	reg.Define(useSlot, ref)
	// defined after the reference was built
	reg.Define(defSlot, value(1))
	reg.Freeze()

	use, ok := reg.Lookup("use")
	require.True(t, ok)
	assertMatch(t, use, box(1))
	assertNoMatch(t, use, box(2))
	assert.Equal(t, []string{"use", "def"}, reg.Names())
}

func TestRegistrySelfReference(t *testing.T) {
	t.Parallel()

	// nested: a list whose elements are ints or nested lists
	reg := NewRegistry()
	slot := reg.Declare("nested")
	self, _ := reg.Ref("nested")
	reg.Define(slot, Or{Alternatives: []Pattern{
		BoxTypeRule{Kind: term.KindInt},
		Forall{Predicate: self},
	}})
	reg.Freeze()

	p, _ := reg.Lookup("nested")
	assertMatch(t, p, term.List{box(1), term.List{box(2), term.List{}}})
	assertNoMatch(t, p, term.List{box(1), term.List{box("x")}})
}

func TestRegistryResolvesAtMatchTime(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	slot := reg.Declare("x")
	ref, _ := reg.Ref("x")

	reg.Define(slot, value("a"))
	assertMatch(t, ref, box("a"))

	reg.Define(slot, value("b"))
	assertNoMatch(t, ref, box("a"))
	assertMatch(t, ref, box("b"))
}

func TestRegistryMisuse(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	assert.Equal(t, 0, reg.Declare("a"))
	assert.Equal(t, 0, reg.Declare("a"))
	assert.Equal(t, 1, reg.Len())

	_, ok := reg.Ref("missing")
	assert.False(t, ok)

	ref, _ := reg.Ref("a")
	assert.Panics(t, func() { ref.Match(box(1)) }, "undefined slot")
	assert.Panics(t, func() { Ref{Name: "loose"}.Match(box(1)) }, "unbound ref")
	assert.Panics(t, func() { reg.Define(5, Var{Name: "x"}) })

	reg.Freeze()
	assert.True(t, reg.Frozen())
	assert.Panics(t, func() { reg.Declare("b") })
	assert.Panics(t, func() { reg.Define(0, Var{Name: "x"}) })
}

func TestConcurrentMatch(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	slot := reg.Declare("ints")
	self, _ := reg.Ref("ints")
	reg.Define(slot, Or{Alternatives: []Pattern{
		And{Conjuncts: []Pattern{BoxTypeRule{Kind: term.KindInt}, Var{Name: "last"}}},
		Forall{Predicate: self},
	}})
	reg.Freeze()
	p, _ := reg.Lookup("ints")

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			captures, fail := p.Match(term.List{box(n), term.List{box(n + 1)}})
			assert.Nil(t, fail)
			assert.Equal(t, box(n+1), captures["last"])
		}(i)
	}
	wg.Wait()
}
