package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/temoto/keypump/cmd/keypump/subcmd"
	"github.com/temoto/keypump/hardware/input"
	"github.com/temoto/keypump/internal/state"
	"github.com/temoto/keypump/log2"
)

var log = log2.NewStderr(log2.LInfo)

var modules = []subcmd.Mod{
	{Name: "run", Usage: "render cursor moved with W/A/S/D", Main: runMain},
	{Name: "dump", Usage: "log key records and pressed keys", Main: dumpMain},
}

func main() {
	flagConfig := flag.String("config", "keypump.hcl", "")
	flagDebug := flag.Bool("debug", false, "debug logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [command]\ncommands:\n", os.Args[0])
		for _, m := range modules {
			fmt.Fprintf(flag.CommandLine.Output(), "  %-6s %s\n", m.Name, m.Usage)
		}
		flag.PrintDefaults()
	}
	flag.Parse()

	if subcmd.SdNotify(log, "start") {
		// under systemd, journal adds timestamps
		log.SetFlags(log2.LServiceFlags)
	} else {
		log.SetFlags(log2.LInteractiveFlags)
	}
	if *flagDebug {
		log.SetLevel(log2.LDebug)
	}

	command := flag.Arg(0)
	if command == "" {
		command = "run"
	}
	mod, err := subcmd.Parse(command, modules)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}

	config := state.MustReadConfig(log, state.NewOsFullReader(), *flagConfig)
	if *flagDebug {
		config.LogDebug = true
	}
	ctx, g := state.NewContext(log)
	log.Debugf("command=%s config=%s", mod.Name, *flagConfig)
	if err := mod.Main(ctx, config); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	runtime.KeepAlive(g)
}

func runMain(ctx context.Context, config *state.Config) error {
	g := state.GetGlobal(ctx)
	g.MustInit(ctx, config)
	return serve(ctx, g)
}

func serve(ctx context.Context, g *state.Global) error {
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigch)
	go func() {
		select {
		case sig := <-sigch:
			g.Log.Infof("signal=%v stopping", sig)
			g.Alive.Stop()
		case <-g.Alive.StopChan():
		}
	}()

	if err := g.Start(ctx); err != nil {
		if errors.Cause(err) == input.ErrDeviceUnavailable {
			g.Log.Fatal(err)
		}
		return errors.Annotate(err, "start")
	}
	subcmd.SdNotify(g.Log, daemon.SdNotifyReady)
	g.Log.Debugf("running")

	err := g.Run()
	subcmd.SdNotify(g.Log, daemon.SdNotifyStopping)
	g.Stop()
	return errors.Annotate(err, "run")
}
