//go:build !linux

package input

import (
	"time"

	"github.com/juju/errors"
)

func deviceName(fd int) (string, error) { return "", errors.NotSupportedf("EVIOCGNAME") }

func deviceGrab(fd int, grab bool) error {
	if !grab {
		return nil
	}
	return errors.NotSupportedf("EVIOCGRAB")
}

func pollRead(fd int, wait time.Duration) error { return nil }
