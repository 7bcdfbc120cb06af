package input

import (
	"io"
	"os"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/inputevent-go"
	input_config "github.com/temoto/keypump/hardware/input/config"
	"github.com/temoto/keypump/internal/types"
)

const DevInputEventTag = "dev-input-event"

type Source interface {
	Read() (types.Record, error)
	Close() error
	String() string
}

// Temporary Source.Read errors mean "nothing to report", reader loop skips them.
type Temporary interface {
	Temporary() bool
}

type TemporaryError string

func (e TemporaryError) Error() string { return string(e) }
func (TemporaryError) Temporary() bool  { return true }
func (TemporaryError) Timeout() bool    { return true }

const (
	ErrReadEmpty   TemporaryError = "input read zero bytes"
	ErrReadTimeout TemporaryError = "input poll timeout"
)

func IsTemporary(err error) bool {
	t, ok := errors.Cause(err).(Temporary)
	return ok && t.Temporary()
}

// countReader remembers result of last Read,
// to tell zero-byte read from short read after inputevent.ReadOne.
type countReader struct {
	r   io.Reader
	n   int
	err error
}

func (self *countReader) Read(p []byte) (int, error) {
	self.n, self.err = self.r.Read(p)
	return self.n, self.err
}

// DevInputEventSource reads fixed-size struct input_event records.
type DevInputEventSource struct {
	rc          io.ReadCloser
	cr          countReader
	fd          int // -1 when not backed by OS file
	name        string
	pollTimeout time.Duration
}

// compile-time interface compliance test
var _ Source = new(DevInputEventSource)

func OpenDevInputEvent(config *input_config.Config) (Source, error) {
	return NewDevInputEventSource(config)
}

func NewDevInputEventSource(config *input_config.Config) (*DevInputEventSource, error) {
	path := config.DevicePath()
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	// Fd() switches file to blocking mode, poll and read go straight to kernel
	fd := int(f.Fd())
	self := &DevInputEventSource{
		rc:          f,
		cr:          countReader{r: f},
		fd:          fd,
		pollTimeout: config.PollTimeout(),
	}
	self.name, _ = deviceName(fd)
	if config.Grab {
		if err = deviceGrab(fd, true); err != nil {
			f.Close()
			return nil, errors.Annotatef(err, "EVIOCGRAB device=%s", path)
		}
	}
	return self, nil
}

// NewStreamSource reads records from any stream, e.g. pipe or replay buffer.
func NewStreamSource(rc io.ReadCloser) *DevInputEventSource {
	return &DevInputEventSource{
		rc: rc,
		cr: countReader{r: rc},
		fd: -1,
	}
}

func (self *DevInputEventSource) String() string { return DevInputEventTag }

// Name is kernel device name from EVIOCGNAME, may be empty.
func (self *DevInputEventSource) Name() string { return self.name }

func (self *DevInputEventSource) Read() (types.Record, error) {
	if self.pollTimeout > 0 && self.fd >= 0 {
		if err := pollRead(self.fd, self.pollTimeout); err != nil {
			return types.Record{}, err
		}
	}
	ie, err := inputevent.ReadOne(&self.cr)
	if err != nil {
		if self.cr.n == 0 && self.cr.err == nil {
			return types.Record{}, ErrReadEmpty
		}
		return types.Record{}, errors.Annotatef(err, "%s read", DevInputEventTag)
	}
	return types.RecordFromInputEvent(ie), nil
}

func (self *DevInputEventSource) Close() error {
	if self.fd >= 0 && self.rc != nil {
		_ = deviceGrab(self.fd, false)
	}
	return self.rc.Close()
}
