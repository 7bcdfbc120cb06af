package input

import (
	"io"
	"sync"
	"unsafe"

	"github.com/juju/errors"
	"github.com/temoto/inputevent-go"
	input_config "github.com/temoto/keypump/hardware/input/config"
	"github.com/temoto/keypump/internal/types"
)

// EncodeRecord writes r in native struct input_event layout,
// the exact bytes a device read would return.
func EncodeRecord(w io.Writer, r types.Record) error {
	ie := r.InputEvent()
	b := (*[inputevent.EventSizeof]byte)(unsafe.Pointer(&ie))
	_, err := w.Write(b[:])
	return err
}

// MockDevice is an in-memory event device. Write side feeds encoded records
// to Source returned by Open.
type MockDevice struct {
	mu     sync.Mutex
	pr     *io.PipeReader
	pw     *io.PipeWriter
	opened int
	err    error
}

func NewMockDevice() *MockDevice {
	pr, pw := io.Pipe()
	return &MockDevice{pr: pr, pw: pw}
}

// NewMockDeviceError makes Open always fail with err.
func NewMockDeviceError(err error) *MockDevice {
	d := NewMockDevice()
	d.err = err
	return d
}

func (self *MockDevice) Open(*input_config.Config) (Source, error) {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.err != nil {
		return nil, self.err
	}
	self.opened++
	return NewStreamSource(self.pr), nil
}

func (self *MockDevice) Opened() int {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.opened
}

// Emit blocks until reader consumed the record.
func (self *MockDevice) Emit(r types.Record) error {
	return errors.Trace(EncodeRecord(self.pw, r))
}

func (self *MockDevice) EmitKey(code types.KeyCode, value types.KeyValue) error {
	return self.Emit(types.KeyRecord(code, value))
}

// EmitEmpty produces one zero-byte read.
func (self *MockDevice) EmitEmpty() error {
	_, err := self.pw.Write(nil)
	return err
}

// Unplug makes pending and future reads fail with err, io.EOF if nil.
func (self *MockDevice) Unplug(err error) {
	if err == nil {
		err = io.EOF
	}
	self.pw.CloseWithError(err)
}
