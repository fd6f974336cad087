package script

import (
	"hash/fnv"
	"math/rand"
	"strconv"
	"strings"

	"github.com/roach88/adaptivity/internal/ir"
)

// SeedKey is the state variable that seeds random builtins.
const SeedKey = "session.seed"

// maxBindHops bounds chains of bound references.
const maxBindHops = 32

// Environment holds variables, bindings and functions for one evaluation
// context. The root environment of a check also owns the random source.
// Environments are not safe for concurrent mutation.
type Environment struct {
	parent   *Environment
	vars     map[string]ir.Value
	bindings map[string]string
	funcs    map[string]*Function
	rng      *rand.Rand
}

// NewEnvironment returns a root environment with the standard library loaded.
func NewEnvironment() *Environment {
	env := newScope(nil)
	registerBuiltins(env)
	loadStdlib(env)
	return env
}

func newScope(parent *Environment) *Environment {
	return &Environment{
		parent:   parent,
		vars:     make(map[string]ir.Value),
		bindings: make(map[string]string),
		funcs:    make(map[string]*Function),
	}
}

func (env *Environment) root() *Environment {
	for env.parent != nil {
		env = env.parent
	}
	return env
}

// Lookup resolves name through bindings and enclosing scopes.
func (env *Environment) Lookup(name string) (ir.Value, bool) {
	for hops := 0; hops < maxBindHops; hops++ {
		target, bound, found := env.resolve(name)
		if !found {
			return nil, false
		}
		if !bound {
			return target.vars[name], true
		}
		name = target.bindings[name]
	}
	return nil, false
}

// resolve finds the scope defining name; bound reports a binding.
func (env *Environment) resolve(name string) (scope *Environment, bound, found bool) {
	for scope = env; scope != nil; scope = scope.parent {
		if _, ok := scope.bindings[name]; ok {
			return scope, true, true
		}
		if _, ok := scope.vars[name]; ok {
			return scope, false, true
		}
	}
	return nil, false, false
}

// Set assigns name in this scope. Bound names cannot be assigned.
func (env *Environment) Set(name string, v ir.Value) error {
	if source, ok := env.bindings[name]; ok {
		return &BoundReferenceError{Name: name, Source: source}
	}
	env.vars[name] = v
	return nil
}

// Bind makes name read through to source until name is removed.
func (env *Environment) Bind(name, source string) {
	delete(env.vars, name)
	env.bindings[name] = source
}

// Remove deletes names (values and bindings) from this scope.
func (env *Environment) Remove(names ...string) {
	for _, name := range names {
		delete(env.vars, name)
		delete(env.bindings, name)
	}
}

// Define registers a function in this scope.
func (env *Environment) Define(fn *Function) {
	env.funcs[fn.Name] = fn
}

// Function finds a function by name through enclosing scopes.
func (env *Environment) Function(name string) (*Function, bool) {
	for scope := env; scope != nil; scope = scope.parent {
		if fn, ok := scope.funcs[name]; ok {
			return fn, true
		}
	}
	return nil, false
}

// Snapshot returns every variable of the root scope with bindings resolved.
// Functions are not included. The snapshot is a deep copy.
func (env *Environment) Snapshot() ir.Object {
	root := env.root()
	out := make(ir.Object, len(root.vars)+len(root.bindings))
	for name, v := range root.vars {
		out[name] = ir.Clone(v)
	}
	for name := range root.bindings {
		if v, ok := root.Lookup(name); ok {
			out[name] = ir.Clone(v)
		}
	}
	return out
}

// Rand returns the random source of the root environment, seeded from
// session.seed the first time it is needed.
func (env *Environment) Rand() *rand.Rand {
	root := env.root()
	if root.rng == nil {
		seed, _ := root.Lookup(SeedKey)
		root.rng = rand.New(rand.NewSource(seedFrom(seed)))
	}
	return root.rng
}

func seedFrom(v ir.Value) int64 {
	switch val := v.(type) {
	case ir.Number:
		return int64(val)
	case ir.String:
		s := strings.TrimSpace(string(val))
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		h := fnv.New64a()
		h.Write([]byte(s))
		return int64(h.Sum64())
	default:
		return 0
	}
}
