package state

import (
	"bytes"
	"context"
	"testing"

	"github.com/temoto/keypump/hardware/input"
	"github.com/temoto/keypump/log2"
)

// NewTestContext builds Global from confString with input from MockDevice
// and screen rendered into returned buffer.
func NewTestContext(t testing.TB, confString string) (context.Context, *Global, *input.MockDevice, *bytes.Buffer) {
	fs := NewMockFullReader(map[string]string{
		"test-inline": confString,
	})

	log := log2.NewTest(t, log2.LDebug)
	// log := log2.NewStderr(log2.LDebug) // useful with panics
	ctx, g := NewContext(log)
	out := bytes.NewBuffer(nil)
	g.Output = out
	g.MustInit(ctx, MustReadConfig(log, fs, "test-inline"))

	dev := input.NewMockDevice()
	g.Reader.Open = dev.Open
	return ctx, g, dev, out
}
