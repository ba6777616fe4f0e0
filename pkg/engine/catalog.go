package engine

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Info is the caller-facing description of one backend.
type Info struct {
	Name         string   `json:"name"`
	DisplayName  string   `json:"displayName"`
	Available    bool     `json:"available"`
	Capabilities []string `json:"capabilities"`
}

// Descriptor registers a backend with the catalog. Probe reports whether
// the backend can actually run (credentials present, binary found); Build
// constructs the engine.
type Descriptor struct {
	Name         string
	DisplayName  string
	Capabilities []string
	Probe        func() bool
	Build        func() (Engine, error)
}

var (
	ErrUnknownBackend     = errors.New("unknown backend")
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// Catalog holds the registered backends. It is populated at startup and
// read concurrently by request handlers.
type Catalog struct {
	mu       sync.RWMutex
	backends map[string]Descriptor
	order    []string
}

func NewCatalog() *Catalog {
	return &Catalog{backends: map[string]Descriptor{}}
}

func (c *Catalog) Register(d Descriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.backends[d.Name]; !ok {
		c.order = append(c.order, d.Name)
	}
	c.backends[d.Name] = d
}

// List returns backend infos in registration order.
func (c *Catalog) List() []Info {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Info, 0, len(c.order))
	for _, name := range c.order {
		d := c.backends[name]
		caps := d.Capabilities
		if caps == nil {
			caps = []string{}
		}
		available := false
		if d.Probe != nil {
			available = d.Probe()
		}
		out = append(out, Info{
			Name:         d.Name,
			DisplayName:  d.DisplayName,
			Available:    available,
			Capabilities: caps,
		})
	}
	return out
}

// Names returns the registered backend names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := append([]string(nil), c.order...)
	sort.Strings(out)
	return out
}

// Resolve builds the engine for a backend. An unknown or unavailable
// backend is a start failure: the generation never begins and no bridge
// should be created.
func (c *Catalog) Resolve(name string) (Engine, error) {
	c.mu.RLock()
	d, ok := c.backends[name]
	c.mu.RUnlock()
	if !ok {
		return nil, errors.Wrap(ErrUnknownBackend, name)
	}
	if d.Probe != nil && !d.Probe() {
		return nil, errors.Wrap(ErrBackendUnavailable, name)
	}
	if d.Build == nil {
		return nil, errors.Wrap(ErrBackendUnavailable, name)
	}
	return d.Build()
}
