// Package keystate is the double-buffered key status table.
// Writes come from the event pump only; reads may come from any goroutine.
package keystate

import (
	"sync"

	"github.com/juju/errors"
	"github.com/temoto/keypump/internal/types"
)

var ErrInvalidKey = errors.New("invalid key code")

// Key is both halves of one key status, read in one critical section.
type Key struct {
	Current  types.KeyValue
	Previous types.KeyValue
}

// Changed reports whether last update was a transition, not a repeat of the same value.
func (k Key) Changed() bool { return k.Current != k.Previous }

// Reader is the read-only view handed to dispatch callbacks and renderers.
type Reader interface {
	Current(code types.KeyCode) types.KeyValue
	Previous(code types.KeyCode) types.KeyValue
	Get(code types.KeyCode) Key
	Pressed(code types.KeyCode) bool
}

type Table struct {
	mu       sync.RWMutex
	current  [types.KeyCount]types.KeyValue
	previous [types.KeyCount]types.KeyValue
}

// compile-time interface compliance test
var _ Reader = new(Table)

// NewTable returns table with every key released.
func NewTable() *Table {
	t := &Table{}
	for i := range t.current {
		t.current[i] = types.KeyReleased
		t.previous[i] = types.KeyReleased
	}
	return t
}

func Valid(code types.KeyCode) bool { return code.Valid() }

func mustValid(code types.KeyCode) {
	if !code.Valid() {
		panic(errors.Annotatef(ErrInvalidKey, "code=%d max=%d", code, types.KeyCount-1))
	}
}

func (t *Table) Update(code types.KeyCode, value types.KeyValue) {
	mustValid(code)
	t.mu.Lock()
	t.previous[code] = t.current[code]
	t.current[code] = value
	t.mu.Unlock()
}

func (t *Table) Current(code types.KeyCode) types.KeyValue {
	mustValid(code)
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current[code]
}

func (t *Table) Previous(code types.KeyCode) types.KeyValue {
	mustValid(code)
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.previous[code]
}

func (t *Table) Get(code types.KeyCode) Key {
	mustValid(code)
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Key{Current: t.current[code], Previous: t.previous[code]}
}

// Pressed is true for both pressed and autorepeat.
func (t *Table) Pressed(code types.KeyCode) bool {
	return t.Current(code) != types.KeyReleased
}

// Snapshot copies current status of all keys.
func (t *Table) Snapshot() Snapshot {
	s := Snapshot{}
	t.mu.RLock()
	s.current = t.current
	s.previous = t.previous
	t.mu.RUnlock()
	return s
}

// Snapshot is a detached copy of Table, safe to read without locks.
type Snapshot struct {
	current  [types.KeyCount]types.KeyValue
	previous [types.KeyCount]types.KeyValue
}

var _ Reader = Snapshot{}

func (s Snapshot) Current(code types.KeyCode) types.KeyValue {
	mustValid(code)
	return s.current[code]
}
func (s Snapshot) Previous(code types.KeyCode) types.KeyValue {
	mustValid(code)
	return s.previous[code]
}
func (s Snapshot) Get(code types.KeyCode) Key {
	mustValid(code)
	return Key{Current: s.current[code], Previous: s.previous[code]}
}
func (s Snapshot) Pressed(code types.KeyCode) bool { return s.Current(code) != types.KeyReleased }

// PressedKeys lists codes currently not released, ascending.
func (s Snapshot) PressedKeys() []types.KeyCode {
	var keys []types.KeyCode
	for i, v := range s.current {
		if v != types.KeyReleased {
			keys = append(keys, types.KeyCode(i))
		}
	}
	return keys
}

func (s Snapshot) String() string {
	b := make([]byte, types.KeyCount)
	for i, v := range s.current {
		if v >= 0 && v <= 9 {
			b[i] = byte('0' + v)
		} else {
			b[i] = '?'
		}
	}
	return string(b)
}
