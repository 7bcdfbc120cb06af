// Package pipeline joins input queue, key state table and dispatcher.
// Producer side (input.Reader goroutine) calls Push,
// consumer side (main loop) calls Pump once per tick.
package pipeline

import (
	"sync/atomic"

	"github.com/temoto/keypump/hardware/input"
	"github.com/temoto/keypump/helpers/bqueue"
	"github.com/temoto/keypump/internal/dispatch"
	"github.com/temoto/keypump/internal/keystate"
	"github.com/temoto/keypump/internal/types"
	"github.com/temoto/keypump/log2"
)

type Pipeline struct {
	Log      *log2.Log
	Queue    *bqueue.Queue[types.Record]
	Dispatch *dispatch.Dispatcher[types.KeyCode, keystate.Reader]
	Keys     *keystate.Table

	pumped  uint64
	invalid uint64
}

// compile-time interface compliance test
var _ input.Sink = new(Pipeline)

func New(log *log2.Log) *Pipeline {
	return &Pipeline{
		Log:      log,
		Queue:    bqueue.New[types.Record](),
		Dispatch: dispatch.New[types.KeyCode, keystate.Reader](log),
		Keys:     keystate.NewTable(),
	}
}

// Push is called by input reader goroutine. False after Close.
func (self *Pipeline) Push(r types.Record) bool { return self.Queue.Push(r) }

func (self *Pipeline) Register(code types.KeyCode, f func(keystate.Reader)) {
	self.Dispatch.RegisterFunc(code, f)
}

// Pump drains queue without blocking. For each record in FIFO order
// updates key table then dispatches key code with the updated table.
// Returns number of records processed.
func (self *Pipeline) Pump() int {
	n := 0
	for !self.Queue.IsEmpty() {
		r, ok := self.Queue.TryPop()
		if !ok {
			break
		}
		n++
		if !r.Code.Valid() {
			atomic.AddUint64(&self.invalid, 1)
			self.Log.Errorf("pipeline drop invalid %s", r.String())
			continue
		}
		self.Keys.Update(r.Code, r.Value)
		self.Dispatch.Dispatch(r.Code, self.Keys)
	}
	atomic.AddUint64(&self.pumped, uint64(n))
	return n
}

// Pumped is total records taken from queue, including invalid.
func (self *Pipeline) Pumped() uint64  { return atomic.LoadUint64(&self.pumped) }
func (self *Pipeline) Invalid() uint64 { return atomic.LoadUint64(&self.invalid) }

// Close rejects further Push, already queued records remain for Pump.
func (self *Pipeline) Close() { self.Queue.Shutdown() }
