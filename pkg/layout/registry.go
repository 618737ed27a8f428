package layout

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnknownLayout   = errors.New("unknown layout")
	ErrDuplicateLayout = errors.New("duplicate layout")
)

// Registry holds layouts keyed by tag.
type Registry struct {
	layouts map[string]Layout
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{layouts: make(map[string]Layout)}
}

// Default returns a registry holding the built-in layouts.
func Default() *Registry {
	r := NewRegistry()
	for _, l := range []Layout{ReferenceLayout(), CandidateLayout()} {
		if err := r.Register(l); err != nil {
			panic(err) // built-ins are always valid
		}
	}
	return r
}

// Register validates l and adds it. Tags must be unique.
func (r *Registry) Register(l Layout) error {
	if err := l.Validate(); err != nil {
		return err
	}
	if _, ok := r.layouts[l.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateLayout, l.Name)
	}
	r.layouts[l.Name] = l
	return nil
}

// Replace validates l and adds it, overwriting any layout with the same tag.
func (r *Registry) Replace(l Layout) error {
	if err := l.Validate(); err != nil {
		return err
	}
	r.layouts[l.Name] = l
	return nil
}

// Lookup returns the layout registered under tag.
func (r *Registry) Lookup(tag string) (Layout, error) {
	l, ok := r.layouts[tag]
	if !ok {
		return Layout{}, fmt.Errorf("%w %q (known: %s)", ErrUnknownLayout, tag, strings.Join(r.Names(), ", "))
	}
	return l, nil
}

// Names returns all registered tags, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.layouts))
	for name := range r.layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Layouts returns all registered layouts sorted by tag.
func (r *Registry) Layouts() []Layout {
	names := r.Names()
	out := make([]Layout, len(names))
	for i, name := range names {
		out[i] = r.layouts[name]
	}
	return out
}
