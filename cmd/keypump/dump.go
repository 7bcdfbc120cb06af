package main

import (
	"context"

	"github.com/temoto/keypump/internal/keystate"
	"github.com/temoto/keypump/internal/state"
	"github.com/temoto/keypump/log2"
)

// dumpRenderer logs pressed keys when set changes instead of drawing.
type dumpRenderer struct {
	log  *log2.Log
	last string
}

func (*dumpRenderer) Clear() {}

func (self *dumpRenderer) Render(k keystate.Reader) {
	snap, ok := k.(interface{ Snapshot() keystate.Snapshot })
	if !ok {
		return
	}
	pressed := snap.Snapshot().PressedKeys()
	s := ""
	for i, code := range pressed {
		if i > 0 {
			s += " "
		}
		s += code.String()
	}
	if s != self.last {
		self.last = s
		self.log.Infof("pressed=[%s]", s)
	}
}

func dumpMain(ctx context.Context, config *state.Config) error {
	g := state.GetGlobal(ctx)
	config.Input.LogDebug = true
	g.Log.SetLevel(log2.LDebug)
	g.Screen = &dumpRenderer{log: g.Log}
	g.MustInit(ctx, config)
	return serve(ctx, g)
}
