// Package params holds the parameter registry: the canonical ordered list of
// known data fields with their units, display titles and primary flag.
package params

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Descriptor describes one data field.
type Descriptor struct {
	Key     string `json:"key" yaml:"key"`
	Name    string `json:"title,omitempty" yaml:"title,omitempty"`
	Units   string `json:"units,omitempty" yaml:"units,omitempty"`
	Primary bool   `json:"primary,omitempty" yaml:"primary,omitempty"`
	Index   int    `json:"index" yaml:"index"`
}

// Title returns the display title, falling back to the key.
func (d Descriptor) Title() string {
	if d.Name != "" {
		return d.Name
	}
	return d.Key
}

// Partial carries the attributes observed for a field. Empty strings and a
// nil Primary mean "not supplied".
type Partial struct {
	Title   string `json:"title,omitempty" yaml:"title,omitempty"`
	Units   string `json:"units,omitempty" yaml:"units,omitempty"`
	Primary *bool  `json:"primary,omitempty" yaml:"primary,omitempty"`
}

// Registry is the ordered descriptor list plus a lookup by key. Both views
// share the same descriptors.
type Registry struct {
	mu          sync.RWMutex
	descriptors []*Descriptor
	byKey       map[string]*Descriptor
	defaults    []Descriptor
	logger      *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for reconcile diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New builds a registry from a definition list. Duplicate keys keep the
// first definition.
func New(defs []Descriptor, opts ...Option) *Registry {
	r := &Registry{
		defaults: append([]Descriptor(nil), defs...),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.load()
	return r
}

// Default builds a registry from the built-in ballistics field table.
func Default(opts ...Option) *Registry {
	return New(DefaultDescriptors(), opts...)
}

func (r *Registry) load() {
	r.descriptors = make([]*Descriptor, 0, len(r.defaults))
	r.byKey = make(map[string]*Descriptor, len(r.defaults))
	for _, def := range r.defaults {
		if def.Key == "" {
			continue
		}
		if _, exists := r.byKey[def.Key]; exists {
			continue
		}
		d := def
		d.Index = len(r.descriptors)
		r.descriptors = append(r.descriptors, &d)
		r.byKey[d.Key] = &d
	}
}

// Reset restores the definition list the registry was built from.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.load()
}

// Lookup returns the descriptor for key.
func (r *Registry) Lookup(key string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byKey[key]
	if !ok {
		return Descriptor{}, false
	}
	return *d, true
}

// Len returns the number of descriptors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.descriptors)
}

// Descriptors returns a snapshot in canonical order.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, len(r.descriptors))
	for i, d := range r.descriptors {
		out[i] = *d
	}
	return out
}

// Keys returns the registered keys in canonical order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, len(r.descriptors))
	for i, d := range r.descriptors {
		keys[i] = d.Key
	}
	return keys
}

// Primary returns the primary descriptors in canonical order.
func (r *Registry) Primary() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		if d.Primary {
			out = append(out, *d)
		}
	}
	return out
}

// Reconcile compares the registry with the fields actually observed in
// loaded data. Registered keys that were not observed and observed fields
// that were not registered are logged; unknown fields are appended with
// their key only plus whatever attributes were supplied, and supplied
// attributes overwrite those of existing entries. The registry never
// shrinks and repeated calls with the same input are idempotent.
func (r *Registry) Reconcile(observed map[string]Partial) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range r.descriptors {
		if _, ok := observed[d.Key]; !ok {
			r.logger.Info("registry key never observed", "key", d.Key)
		}
	}

	keys := make([]string, 0, len(observed))
	for key := range observed {
		if key != "" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		d, ok := r.byKey[key]
		if !ok {
			r.logger.Info("observed field not in registry", "key", key)
			d = &Descriptor{Key: key}
			r.descriptors = append(r.descriptors, d)
			r.byKey[key] = d
		}
		merge(d, observed[key])
	}

	for i, d := range r.descriptors {
		d.Index = i
	}
	return r
}

func merge(d *Descriptor, p Partial) {
	if p.Title != "" {
		d.Name = p.Title
	}
	if p.Units != "" {
		d.Units = p.Units
	}
	if p.Primary != nil {
		d.Primary = *p.Primary
	}
}

// LoadDescriptors reads a YAML (or JSON) mapping of field key to observed
// attributes, suitable as the argument of Reconcile.
func LoadDescriptors(reader io.Reader) (map[string]Partial, error) {
	observed := make(map[string]Partial)
	dec := yaml.NewDecoder(reader)
	if err := dec.Decode(&observed); err != nil {
		if err == io.EOF {
			return observed, nil
		}
		return nil, fmt.Errorf("decoding descriptors: %w", err)
	}
	return observed, nil
}

// ObservedKeys turns a plain list of field names into a Reconcile argument.
func ObservedKeys(keys []string) map[string]Partial {
	observed := make(map[string]Partial, len(keys))
	for _, key := range keys {
		observed[key] = Partial{}
	}
	return observed
}
