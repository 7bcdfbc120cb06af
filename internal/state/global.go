// Package state owns the one input subsystem instance of the process.
// Global is built once at startup and passed explicitly or via context.
package state

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/keypump/hardware/input"
	"github.com/temoto/keypump/internal/keystate"
	"github.com/temoto/keypump/internal/pipeline"
	"github.com/temoto/keypump/internal/screen"
	"github.com/temoto/keypump/internal/types"
	"github.com/temoto/keypump/log2"
)

const ContextKey = "run/state-global"

type Global struct {
	Alive    *alive.Alive
	Config   *Config
	Log      *log2.Log
	Pipeline *pipeline.Pipeline
	Reader   *input.Reader
	Screen   screen.Renderer
	Output   io.Writer

	initOnce sync.Once
	stopOnce sync.Once
}

func NewContext(log *log2.Log) (context.Context, *Global) {
	if log == nil {
		panic("code error NewContext() log=nil")
	}
	g := &Global{
		Alive:  alive.NewAlive(),
		Log:    log,
		Output: os.Stdout,
	}
	ctx := context.Background()
	ctx = context.WithValue(ctx, log2.ContextKey, log)
	ctx = context.WithValue(ctx, ContextKey, g)
	return ctx, g
}

func GetGlobal(ctx context.Context) *Global {
	v := ctx.Value(ContextKey)
	if v == nil {
		panic(fmt.Sprintf("context['%s'] is nil", ContextKey))
	}
	if g, ok := v.(*Global); ok {
		return g
	}
	panic(fmt.Sprintf("context['%s'] expected type *Global actual=%#v", ContextKey, v))
}

// Init wires pipeline, reader and screen. Device is not touched until Start.
// If `Init` fails, consider `Global` is in broken state.
func (g *Global) Init(ctx context.Context, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return errors.Annotate(err, "state init")
	}
	quit, err := cfg.QuitCodes()
	if err != nil {
		return errors.Annotate(err, "state init")
	}

	g.initOnce.Do(func() {
		g.Config = cfg
		if cfg.LogDebug {
			g.Log.SetLevel(log2.LDebug)
		}
		g.Log.Debugf("config: input=%+v tick=%v", cfg.Input, cfg.Tick())

		g.Pipeline = pipeline.New(g.Log)
		g.Reader = input.NewReader(g.Log, cfg.Input, g.Pipeline)
		if g.Screen == nil {
			scr := screen.New(g.Output, cfg.Screen)
			scr.Bind(g.Pipeline)
			g.Screen = scr
		}
		for _, code := range quit {
			code := code
			g.Pipeline.Register(code, func(k keystate.Reader) {
				if k.Current(code) == types.KeyPressed {
					g.Log.Infof("quit key=%s", code)
					g.Alive.Stop()
				}
			})
		}
	})
	return nil
}

func (g *Global) MustInit(ctx context.Context, cfg *Config) {
	if err := g.Init(ctx, cfg); err != nil {
		g.Log.Fatal(errors.ErrorStack(err))
	}
}

// Start opens input device. Error cause input.ErrDeviceUnavailable is fatal.
func (g *Global) Start(ctx context.Context) error {
	if g.Reader == nil {
		return errors.Errorf("code error state.Start before Init")
	}
	return errors.Trace(g.Reader.Start(ctx))
}

// Tick is one consumer iteration: drain queue, clear, render.
func (g *Global) Tick() int {
	n := g.Pipeline.Pump()
	g.Screen.Clear()
	g.Screen.Render(g.Pipeline.Keys)
	return n
}

// Run ticks until Alive is stopped or input reader ends on its own.
// Returns reader error in latter case, io.EOF counts as clean end.
func (g *Global) Run() error {
	if !g.Alive.Add(1) {
		return nil
	}
	defer g.Alive.Done()

	ticker := time.NewTicker(g.Config.Tick())
	defer ticker.Stop()
	stopCh := g.Alive.StopChan()
	readerDone := g.Reader.Done()
	for {
		select {
		case <-ticker.C:
			g.Tick()

		case <-stopCh:
			g.Tick()
			return nil

		case <-readerDone:
			g.Tick()
			err := g.Reader.Err()
			g.Alive.Stop()
			if errors.Cause(err) == io.EOF {
				return nil
			}
			return err
		}
	}
}

// Stop releases device and closes queue, in this order, once.
// Reader stop waits for the current device read to return.
func (g *Global) Stop() {
	g.stopOnce.Do(func() {
		g.Alive.Stop()
		if g.Reader != nil {
			if g.Reader.State() == input.StateRunning || g.Reader.State() == input.StateStopping {
				if g.Config.Input.PollTimeout() == 0 {
					g.Log.Infof("waiting for input device read to return, press any key")
				}
			}
			g.Reader.Stop()
			st := g.Reader.Stats()
			g.Log.Debugf("input stats read=%d forwarded=%d dropped=%d skipped=%d",
				st.Read, st.Forwarded, st.Dropped, st.Skipped)
		}
		if g.Pipeline != nil {
			g.Pipeline.Close()
			g.Pipeline.Pump()
		}
	})
}
