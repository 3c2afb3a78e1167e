// Package events routes page interactions to handlers registered per
// structural owner. Every registration returns a disposer so an owner can
// drop its bindings before it is rendered again.
package events

import (
	"context"
	"fmt"
	"sync"
)

type registration struct {
	seq     uint64
	owner   Owner
	handler Handler
}

// Dispatcher holds the handler table of one viewer.
type Dispatcher struct {
	mu       sync.Mutex
	seq      uint64
	handlers map[Kind][]registration
}

// NewDispatcher creates an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[Kind][]registration)}
}

// Register binds handler to kind on behalf of owner. The returned function
// removes exactly this binding and may be called more than once.
func (d *Dispatcher) Register(owner Owner, kind Kind, handler Handler) (dispose func()) {
	d.mu.Lock()
	d.seq++
	seq := d.seq
	d.handlers[kind] = append(d.handlers[kind], registration{seq: seq, owner: owner, handler: handler})
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { d.remove(kind, seq) })
	}
}

// Bind registers a set of handlers for owner and returns one disposer for
// all of them.
func (d *Dispatcher) Bind(owner Owner, handlers map[Kind]Handler) (dispose func()) {
	disposers := make([]func(), 0, len(handlers))
	for kind, h := range handlers {
		disposers = append(disposers, d.Register(owner, kind, h))
	}
	return func() {
		for _, fn := range disposers {
			fn()
		}
	}
}

func (d *Dispatcher) remove(kind Kind, seq uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	regs := d.handlers[kind]
	for i, r := range regs {
		if r.seq == seq {
			d.handlers[kind] = append(regs[:i:i], regs[i+1:]...)
			break
		}
	}
	if len(d.handlers[kind]) == 0 {
		delete(d.handlers, kind)
	}
}

// Dispatch runs the handlers bound to ev.Kind in registration order and
// reports whether any ran. Handlers may register or dispose bindings while
// running; the change applies to the next dispatch.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) (handled bool, err error) {
	d.mu.Lock()
	regs := append([]registration(nil), d.handlers[ev.Kind]...)
	d.mu.Unlock()

	for _, r := range regs {
		if err := r.handler(ctx, ev); err != nil {
			return true, fmt.Errorf("%s handler for %s: %w", r.owner, ev.Kind, err)
		}
	}
	return len(regs) > 0, nil
}

// Count returns how many handlers are bound to kind.
func (d *Dispatcher) Count(kind Kind) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.handlers[kind])
}

// Owners returns how many handlers each owner has bound.
func (d *Dispatcher) Owners() map[Owner]int {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make(map[Owner]int)
	for _, regs := range d.handlers {
		for _, r := range regs {
			out[r.owner]++
		}
	}
	return out
}
