package types

import (
	"fmt"
	"syscall"
	"time"

	"github.com/temoto/inputevent-go"
)

// Linux input-event-codes.h event classes.
type EventType uint16

const (
	EV_SYN EventType = inputevent.EV_SYN
	EV_KEY EventType = inputevent.EV_KEY
	EV_REL EventType = inputevent.EV_REL
	EV_ABS EventType = inputevent.EV_ABS
	EV_MSC EventType = inputevent.EV_MSC
	EV_SW  EventType = inputevent.EV_SW
	EV_LED EventType = inputevent.EV_LED
	EV_REP EventType = inputevent.EV_REP
)

func (t EventType) String() string {
	if s, ok := inputevent.EV[int(t)]; ok {
		return s
	}
	return fmt.Sprintf("EV(%#x)", uint16(t))
}

// Record.Value for EV_KEY
type KeyValue int32

const (
	KeyReleased = KeyValue(inputevent.KeyStateUp)
	KeyPressed  = KeyValue(inputevent.KeyStateDown)
	KeyRepeat   = KeyValue(inputevent.KeyStateHold)
)

func (v KeyValue) String() string {
	switch v {
	case KeyReleased:
		return "released"
	case KeyPressed:
		return "pressed"
	case KeyRepeat:
		return "repeat"
	}
	return fmt.Sprintf("value(%d)", int32(v))
}

// Record is one raw input event as produced by the device.
// Layout matches struct input_event; value type, copy freely.
type Record struct {
	Time  syscall.Timeval
	Type  EventType
	Code  KeyCode
	Value KeyValue
}

func RecordFromInputEvent(ie inputevent.InputEvent) Record {
	return Record{
		Time:  ie.Time,
		Type:  EventType(ie.Type),
		Code:  KeyCode(ie.Code),
		Value: KeyValue(ie.Value),
	}
}

func (r Record) InputEvent() inputevent.InputEvent {
	return inputevent.InputEvent{
		Time:  r.Time,
		Type:  uint16(r.Type),
		Code:  uint16(r.Code),
		Value: int32(r.Value),
	}
}

func (r *Record) IsKey() bool { return r.Type == EV_KEY }

func (r *Record) Timestamp() time.Time {
	sec, nsec := r.Time.Unix()
	return time.Unix(sec, nsec)
}

func (r Record) String() string {
	if r.Type == EV_KEY {
		return fmt.Sprintf("Record(key=%s %s)", r.Code, r.Value)
	}
	return fmt.Sprintf("Record(type=%s code=%d value=%d)", r.Type, uint16(r.Code), int32(r.Value))
}

// KeyRecord is shorthand for tests and synthetic input.
func KeyRecord(code KeyCode, value KeyValue) Record {
	return Record{Type: EV_KEY, Code: code, Value: value}
}
