package input

import (
	"bytes"
	"time"
	"unsafe"

	"github.com/juju/errors"
	"golang.org/x/sys/unix"
)

// _IOC(dir,'E',nr,size) from linux/input.h
const (
	cEVIOCGNAME = 0x80000000 | (256 << 16) | ('E' << 8) | 0x06 // _IOR('E', 0x06, char[256])
	cEVIOCGRAB  = 0x40000000 | (4 << 16) | ('E' << 8) | 0x90   // _IOW('E', 0x90, int)
)

func deviceName(fd int) (string, error) {
	var buf [256]byte
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(cEVIOCGNAME), uintptr(unsafe.Pointer(&buf[0])))
	if errno != 0 {
		return "", errors.Annotate(errno, "EVIOCGNAME")
	}
	if i := bytes.IndexByte(buf[:], 0); i >= 0 {
		return string(buf[:i]), nil
	}
	return string(buf[:]), nil
}

func deviceGrab(fd int, grab bool) error {
	v := 0
	if grab {
		v = 1
	}
	return unix.IoctlSetInt(fd, cEVIOCGRAB, v)
}

// pollRead waits until fd is readable. Returns ErrReadTimeout after wait.
func pollRead(fd int, wait time.Duration) error {
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	ms := int(wait / time.Millisecond)
	for {
		n, err := unix.Poll(fds, ms)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return errors.Annotate(err, "poll")
		}
		if n == 0 {
			return ErrReadTimeout
		}
		return nil
	}
}
