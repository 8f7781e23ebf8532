// Package registry holds step declarations discovered from step-definition
// files and binds them to godog scenarios.
//
// Loading is two-phase: a Source discovers the declarations a file provides,
// then the caller registers them explicitly. Nothing registers as a side
// effect of discovery.
package registry

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"sort"
	"sync"

	"github.com/cucumber/godog"

	"stepload/internal/pattern"
)

// Declaration is one step a file provides.
type Declaration struct {
	Keyword string
	Pattern string
	// Handler is a godog step function. Nil handlers bind as pending steps.
	Handler any
	File    string
}

// Stats summarises registry contents.
type Stats struct {
	TotalSteps  int
	Patterns    int
	LoadedFiles int
}

// Registry is the step registry populated by the loader.
type Registry struct {
	mu     sync.RWMutex
	decls  []Declaration
	loaded map[string]struct{}
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{loaded: make(map[string]struct{})}
}

// Register adds the declarations discovered for file. Declarations without a
// pattern or with a non-function handler are rejected as a whole.
func (r *Registry) Register(file string, decls []Declaration) error {
	for i, decl := range decls {
		if decl.Pattern == "" {
			return fmt.Errorf("declaration %d in %s has no pattern", i, file)
		}
		if decl.Handler != nil && reflect.TypeOf(decl.Handler).Kind() != reflect.Func {
			return fmt.Errorf("declaration %q in %s: handler is %T, want func", decl.Pattern, file, decl.Handler)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, decl := range decls {
		if decl.File == "" {
			decl.File = file
		}
		r.decls = append(r.decls, decl)
	}
	return nil
}

// MarkFileLoaded records a successfully loaded file.
func (r *Registry) MarkFileLoaded(file string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded[filepath.Clean(file)] = struct{}{}
}

// LoadedFiles returns the files marked loaded, sorted.
func (r *Registry) LoadedFiles() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	files := make([]string, 0, len(r.loaded))
	for f := range r.loaded {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Declarations returns a copy of every registered declaration in
// registration order.
func (r *Registry) Declarations() []Declaration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Declaration(nil), r.decls...)
}

// Stats reports step and file counts.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	patterns := make(map[string]struct{}, len(r.decls))
	for _, d := range r.decls {
		patterns[d.Pattern] = struct{}{}
	}
	return Stats{TotalSteps: len(r.decls), Patterns: len(patterns), LoadedFiles: len(r.loaded)}
}

// Reset drops every declaration and loaded file.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decls = nil
	r.loaded = make(map[string]struct{})
}

// StepContext is the part of godog.ScenarioContext used for binding.
type StepContext interface {
	Step(expr, stepFunc interface{})
}

var _ StepContext = (*godog.ScenarioContext)(nil)

// Bind registers every declaration with a godog scenario context. A pattern
// declared by several files binds once, from the first registration.
// Patterns that do not compile are skipped and reported together.
func (r *Registry) Bind(sc StepContext) error {
	var errs []error
	seen := make(map[string]struct{})
	for _, decl := range r.Declarations() {
		if _, ok := seen[decl.Pattern]; ok {
			continue
		}
		seen[decl.Pattern] = struct{}{}
		re, err := pattern.ToRegexp(decl.Pattern)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", decl.File, err))
			continue
		}
		handler := decl.Handler
		if handler == nil {
			handler = pendingHandler(re.NumSubexp())
		}
		sc.Step(re, handler)
	}
	return errors.Join(errs...)
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// pendingHandler builds a step function taking args string arguments that
// reports the step as pending.
func pendingHandler(args int) any {
	in := make([]reflect.Type, args)
	for i := range in {
		in[i] = reflect.TypeOf("")
	}
	fnType := reflect.FuncOf(in, []reflect.Type{errorType}, false)
	return reflect.MakeFunc(fnType, func([]reflect.Value) []reflect.Value {
		return []reflect.Value{reflect.ValueOf(&godog.ErrPending).Elem()}
	}).Interface()
}
