package param

import (
	"fmt"
	"sync"
)

// Catalog is the engine-wide map from a parameter's namespaced string name
// (spec.md §6: "osc_1_level", "env_2_attack", "filter_1_cutoff",
// "modulation_17_amount") to its Value, generalized from the teacher's
// uint32-ID-keyed Registry since the external interface in spec.md
// addresses parameters by name rather than by VST3 ParamID.
type Catalog struct {
	mu     sync.RWMutex
	byName map[string]*Value
	order  []string
}

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{byName: make(map[string]*Value)}
}

// Add registers one or more Values. A duplicate name is a programming
// error (two components declared the same parameter name) and is
// reported rather than silently skipped, unlike the teacher's Registry.Add,
// because catalog construction happens once at startup on the control
// thread where an error return is cheap and useful.
func (c *Catalog) Add(values ...*Value) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, v := range values {
		if _, exists := c.byName[v.Name]; exists {
			return fmt.Errorf("param: duplicate parameter name %q", v.Name)
		}
		c.byName[v.Name] = v
		c.order = append(c.order, v.Name)
	}
	return nil
}

// Get looks up a Value by name.
func (c *Catalog) Get(name string) (*Value, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.byName[name]
	return v, ok
}

// MustGet looks up a Value by name, panicking if absent. Intended for use
// during startup wiring only (component construction), never on the audio
// thread.
func (c *Catalog) MustGet(name string) *Value {
	v, ok := c.Get(name)
	if !ok {
		panic(fmt.Sprintf("param: unknown parameter %q", name))
	}
	return v
}

// Count returns the number of registered parameters.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// All returns every Value in registration order.
func (c *Catalog) All() []*Value {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]*Value, len(c.order))
	for i, name := range c.order {
		result[i] = c.byName[name]
	}
	return result
}

// Names returns every registered parameter name, in registration order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}
