// Package dispatch multiplexes handlers by event key.
// Several independent subsystems may react to the same key, each handler
// runs in registration order.
package dispatch

import (
	"fmt"
	"sort"
	"sync"

	"github.com/juju/errors"
	"github.com/temoto/keypump/log2"
)

type Handler[A any] interface {
	Handle(A)
}

type HandlerFunc[A any] func(A)

func (f HandlerFunc[A]) Handle(arg A) { f(arg) }

// PanicFunc receives a recovered handler panic converted to error.
type PanicFunc[K comparable] func(key K, index int, err error)

type Dispatcher[K comparable, A any] struct {
	Log     *log2.Log
	OnPanic PanicFunc[K]

	mu       sync.RWMutex
	handlers map[K][]Handler[A]
}

func New[K comparable, A any](log *log2.Log) *Dispatcher[K, A] {
	return &Dispatcher[K, A]{
		Log:      log,
		handlers: make(map[K][]Handler[A], 16),
	}
}

func (d *Dispatcher[K, A]) Register(key K, h Handler[A]) {
	if h == nil {
		panic(fmt.Sprintf("code error dispatch register key=%v handler=nil", key))
	}
	d.mu.Lock()
	d.handlers[key] = append(d.handlers[key], h)
	d.mu.Unlock()
}

func (d *Dispatcher[K, A]) RegisterFunc(key K, f func(A)) {
	if f == nil {
		panic(fmt.Sprintf("code error dispatch register key=%v func=nil", key))
	}
	d.Register(key, HandlerFunc[A](f))
}

// Dispatch calls all handlers registered for key, returns how many were called.
// Unknown key is not an error. A panicking handler does not stop the rest.
func (d *Dispatcher[K, A]) Dispatch(key K, arg A) int {
	d.mu.RLock()
	hs := d.handlers[key]
	d.mu.RUnlock()

	// handlers registered during Dispatch take effect on next Dispatch
	for i, h := range hs {
		d.call(key, i, h, arg)
	}
	return len(hs)
}

func (d *Dispatcher[K, A]) Len(key K) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers[key])
}

// Keys with at least one handler, sorted by fmt representation for stable logs.
func (d *Dispatcher[K, A]) Keys() []K {
	d.mu.RLock()
	keys := make([]K, 0, len(d.handlers))
	for k := range d.handlers {
		keys = append(keys, k)
	}
	d.mu.RUnlock()
	sort.Slice(keys, func(i, j int) bool { return fmt.Sprint(keys[i]) < fmt.Sprint(keys[j]) })
	return keys
}

func (d *Dispatcher[K, A]) call(key K, index int, h Handler[A], arg A) {
	defer func() {
		if x := recover(); x != nil {
			err, ok := x.(error)
			if !ok {
				err = errors.Errorf("%v", x)
			}
			err = errors.Annotatef(err, "dispatch key=%v handler=%d panic", key, index)
			d.Log.Error(err)
			if d.OnPanic != nil {
				d.OnPanic(key, index, err)
			}
		}
	}()
	h.Handle(arg)
}
