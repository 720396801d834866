package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fastygo/rozklad/domain"
)

// Handler runs one named operation with its raw arguments and returns something
// printable.
type Handler func(ctx context.Context, args []string) (interface{}, error)

// Entry describes a registered operation. Commands change backend or session state;
// queries only read.
type Entry struct {
	Name    string
	Usage   string
	Query   bool
	Public  bool
	handler Handler
}

type Dispatcher struct {
	entries map[string]Entry
	mu      sync.RWMutex
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{entries: make(map[string]Entry)}
}

// RegisterCommand adds a state-changing operation. Public commands run without a
// session (login, register).
func (d *Dispatcher) RegisterCommand(name, usage string, public bool, handler Handler) {
	d.register(Entry{Name: name, Usage: usage, Public: public, handler: handler})
}

func (d *Dispatcher) RegisterQuery(name, usage string, handler Handler) {
	d.register(Entry{Name: name, Usage: usage, Query: true, handler: handler})
}

func (d *Dispatcher) register(e Entry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[e.Name] = e
}

// Lookup returns the entry registered under name.
func (d *Dispatcher) Lookup(name string) (Entry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.entries[name]
	return e, ok
}

// Execute runs the named operation.
func (d *Dispatcher) Execute(ctx context.Context, name string, args []string) (interface{}, error) {
	e, ok := d.Lookup(name)
	if !ok {
		return nil, domain.NewError(domain.ErrCodeNotFound, fmt.Sprintf("unknown command %q", name))
	}
	return e.handler(ctx, args)
}

// Entries lists everything registered, sorted by name.
func (d *Dispatcher) Entries() []Entry {
	d.mu.RLock()
	out := make([]Entry, 0, len(d.entries))
	for _, e := range d.entries {
		out = append(out, e)
	}
	d.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
