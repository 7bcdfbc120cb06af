package types

import (
	"strconv"
	"sync"

	"github.com/temoto/inputevent-go"
)

type KeyCode uint16

// KEY_CNT, valid codes are [0, KeyCount).
const KeyCount = inputevent.KEY_MAX + 1

func (k KeyCode) Valid() bool { return int(k) < KeyCount }

// Keys used by keypump itself, any other KEY_* works via ParseKeyCode.
const (
	KeyReserved  KeyCode = inputevent.KEY_RESERVED
	KeyEsc       KeyCode = inputevent.KEY_ESC
	KeyEnter     KeyCode = inputevent.KEY_ENTER
	KeyQ         KeyCode = inputevent.KEY_Q
	KeyW         KeyCode = inputevent.KEY_W
	KeyA         KeyCode = inputevent.KEY_A
	KeyS         KeyCode = inputevent.KEY_S
	KeyD         KeyCode = inputevent.KEY_D
	KeyLeftCtrl  KeyCode = inputevent.KEY_LEFTCTRL
	KeyLeftShift KeyCode = inputevent.KEY_LEFTSHIFT
	KeySpace     KeyCode = inputevent.KEY_SPACE
	KeyUp        KeyCode = inputevent.KEY_UP
	KeyLeft      KeyCode = inputevent.KEY_LEFT
	KeyRight     KeyCode = inputevent.KEY_RIGHT
	KeyDown      KeyCode = inputevent.KEY_DOWN
)

// String is KEY_* or BTN_* name from input-event-codes.h, KEY_n for unnamed codes.
func (k KeyCode) String() string {
	if s, ok := inputevent.KEY[int(k)]; ok {
		return s
	}
	if s, ok := inputevent.BTN[int(k)]; ok {
		return s
	}
	return "KEY_" + strconv.Itoa(int(k))
}

var (
	codeByNameOnce sync.Once
	codeByName     map[string]KeyCode
)

func keyCodeByName(s string) (KeyCode, bool) {
	codeByNameOnce.Do(func() {
		codeByName = make(map[string]KeyCode, len(inputevent.KEY)+len(inputevent.BTN))
		for _, m := range []map[int]string{inputevent.BTN, inputevent.KEY} {
			for code, name := range m {
				if code >= 0 && code < KeyCount {
					codeByName[name] = KeyCode(code)
				}
			}
		}
	})
	k, ok := codeByName[s]
	return k, ok
}

// ParseKeyCode accepts KEY_*/BTN_* name or decimal code.
func ParseKeyCode(s string) (KeyCode, bool) {
	if k, ok := keyCodeByName(s); ok {
		return k, true
	}
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil || !KeyCode(n).Valid() {
		return 0, false
	}
	return KeyCode(n), true
}
