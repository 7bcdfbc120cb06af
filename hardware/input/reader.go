// Package input reads keyboard records from a Linux event device
// in a background goroutine and hands key records to a Sink.
package input

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	input_config "github.com/temoto/keypump/hardware/input/config"
	"github.com/temoto/keypump/helpers"
	"github.com/temoto/keypump/helpers/atomic_clock"
	"github.com/temoto/keypump/internal/types"
	"github.com/temoto/keypump/log2"
)

var (
	ErrDeviceUnavailable = errors.New("input device unavailable")
	ErrState             = errors.New("input reader invalid state")
)

type Sink interface {
	Push(types.Record) bool
}

type OpenFunc func(*input_config.Config) (Source, error)

type State uint32

const (
	StateIdle State = iota
	StateOpening
	StateRunning
	StateStopping
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpening:
		return "opening"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", uint32(s))
}

type Stats struct {
	Read      uint64 // records read from device
	Forwarded uint64 // key records pushed to sink
	Dropped   uint64 // non-key records
	Skipped   uint64 // empty reads and poll timeouts
	LastRead  time.Time
}

// Reader owns one device handle and exactly one goroutine reading it.
// Stop is cooperative: the goroutine notices it between reads, so Stop
// waits for current read to return. With poll_timeout_ms=0 that is the
// next device event; otherwise at most poll timeout.
// Reader must not be copied.
type Reader struct {
	Log  *log2.Log
	Open OpenFunc

	mu     sync.Mutex // state transitions
	config input_config.Config
	sink   Sink
	state  uint32
	src    Source
	alive  *alive.Alive
	err    helpers.AtomicError

	nread      uint64
	nforwarded uint64
	ndropped   uint64
	nskipped   uint64
	lastRead   atomic_clock.Clock
}

func NewReader(log *log2.Log, config input_config.Config, sink Sink) *Reader {
	if sink == nil {
		panic("code error input.NewReader sink=nil")
	}
	return &Reader{
		Log:    log,
		Open:   OpenDevInputEvent,
		config: config,
		sink:   sink,
	}
}

func (self *Reader) String() string {
	return fmt.Sprintf("input.Reader(device=%s state=%s)", self.config.DevicePath(), self.State())
}

func (self *Reader) State() State      { return State(atomic.LoadUint32(&self.state)) }
func (self *Reader) setState(s State) { atomic.StoreUint32(&self.state, uint32(s)) }

// Err returns the error that ended reading: open failure or device read error.
// Clean Stop leaves Err nil.
func (self *Reader) Err() error {
	err, _ := self.err.Load()
	return err
}

func (self *Reader) Stats() Stats {
	return Stats{
		Read:      atomic.LoadUint64(&self.nread),
		Forwarded: atomic.LoadUint64(&self.nforwarded),
		Dropped:   atomic.LoadUint64(&self.ndropped),
		Skipped:   atomic.LoadUint64(&self.nskipped),
		LastRead:  self.lastRead.Time(),
	}
}

// Start opens device and spawns reading goroutine.
// Open failure is final: Reader goes to Closed and error cause is ErrDeviceUnavailable.
// Cancelled ctx stops reading the same as Stop, except handle is released by goroutine itself.
func (self *Reader) Start(ctx context.Context) error {
	self.mu.Lock()
	defer self.mu.Unlock()

	if s := self.State(); s != StateIdle {
		return errors.Annotatef(ErrState, "start state=%s", s)
	}
	if err := ctx.Err(); err != nil {
		return errors.Annotate(err, "input start")
	}

	self.setState(StateOpening)
	device := self.config.DevicePath()
	src, err := self.Open(&self.config)
	if err != nil {
		self.setState(StateClosed)
		err = errors.Wrapf(err, ErrDeviceUnavailable, "input device=%s err=%v", device, err)
		self.err.StoreOnce(err)
		return err
	}
	if named, ok := src.(interface{ Name() string }); ok && named.Name() != "" {
		self.Log.Infof("input device=%s name=%s", device, named.Name())
	} else {
		self.Log.Infof("input device=%s", device)
	}

	self.src = src
	self.alive = alive.NewAlive()
	self.alive.Add(1)
	self.setState(StateRunning)
	go self.loop()
	go func() {
		select {
		case <-ctx.Done():
			self.Log.Debugf("input context done, stopping")
			self.beginStop()
		case <-self.alive.StopChan():
		}
	}()
	return nil
}

// Stop clears running flag, waits for reading goroutine to finish, releases device.
// Multiple and concurrent calls are allowed. Stop before Start moves Reader to Closed.
func (self *Reader) Stop() {
	self.mu.Lock()
	switch self.State() {
	case StateIdle:
		self.setState(StateClosed)
		self.mu.Unlock()
		return
	case StateClosed:
		self.mu.Unlock()
		return
	}
	a := self.alive
	self.beginStop()
	self.mu.Unlock()

	a.Wait()
}

// Done is closed when reading goroutine finished and handle is released.
// Nil before Start.
func (self *Reader) Done() <-chan struct{} {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.alive == nil {
		return nil
	}
	return self.alive.WaitChan()
}

func (self *Reader) beginStop() {
	atomic.CompareAndSwapUint32(&self.state, uint32(StateRunning), uint32(StateStopping))
	self.alive.Stop()
}

func (self *Reader) loop() {
	defer self.finish()
	tag := self.src.String()
	for self.alive.IsRunning() {
		rec, err := self.src.Read()
		if err != nil {
			if IsTemporary(err) {
				atomic.AddUint64(&self.nskipped, 1)
				continue
			}
			if !self.alive.IsRunning() {
				// read error after Stop is expected shutdown noise
				self.Log.Debugf("input source=%s read after stop err=%v", tag, err)
				return
			}
			if errors.Cause(err) == io.EOF {
				self.Log.Infof("input source=%s end of stream", tag)
			} else {
				err = errors.Annotatef(err, "input source=%s", tag)
				self.Log.Error(err)
			}
			self.err.StoreOnce(err)
			return
		}
		atomic.AddUint64(&self.nread, 1)
		self.lastRead.SetNow()

		// reader side filter, only key records cross the queue
		if !rec.IsKey() {
			atomic.AddUint64(&self.ndropped, 1)
			continue
		}
		if self.config.LogDebug {
			self.Log.Debugf("input source=%s %s", tag, rec.String())
		}
		if !self.sink.Push(rec) {
			self.Log.Debugf("input source=%s sink closed", tag)
			return
		}
		atomic.AddUint64(&self.nforwarded, 1)
	}
}

func (self *Reader) finish() {
	self.beginStop()
	if err := self.src.Close(); err != nil {
		self.Log.Errorf("input close err=%v", err)
	}
	self.setState(StateClosed)
	self.alive.Done()
}
