package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/matheus3301/chatterm/internal/boot"
	"github.com/matheus3301/chatterm/internal/bus"
	"github.com/matheus3301/chatterm/internal/chat"
	"github.com/matheus3301/chatterm/internal/lock"
	"github.com/matheus3301/chatterm/internal/logging"
	"github.com/matheus3301/chatterm/internal/profile"
	"github.com/matheus3301/chatterm/internal/status"
	"github.com/matheus3301/chatterm/internal/tui"
)

const binary = "chatterm"

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	debug := flag.Bool("debug", false, "log at debug level")
	flag.Parse()

	name, prof, err := profile.Load(*profileFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: profile %q: %v\n", name, err)
		fmt.Fprintf(os.Stderr, "edit %s to configure it\n", profile.ConfigPath())
		os.Exit(1)
	}

	level := zapcore.InfoLevel
	if *debug {
		level = zapcore.DebugLevel
	}
	logPath := profile.LogPath(name, binary)
	logger, err := logging.New(logPath, name, logging.Options{Level: level})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: open log: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	var (
		ctl     *chat.Controller
		b       *bus.Bus
		machine *status.Machine
	)
	app := fx.New(
		fx.WithLogger(func() fxevent.Logger { return &fxevent.ZapLogger{Logger: logger.Named("fx")} }),
		fx.Supply(logger),
		boot.Module(boot.Params{ProfileName: name, Profile: prof, Binary: binary}),
		fx.Populate(&ctl, &b, &machine),
	)
	if err := app.Err(); err != nil {
		var held *lock.HeldError
		if errors.As(err, &held) {
			fmt.Fprintf(os.Stderr, "error: %v\n", held)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "error: %v (see %s)\n", err, logPath)
		os.Exit(1)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		fmt.Fprintf(os.Stderr, "error: start session: %v\n", err)
		os.Exit(1)
	}

	ui := tui.NewApp(ctl, b, machine, tui.Options{
		Profile: name,
		Server:  prof.ServerURL,
		Logger:  logger.Named("tui"),
	})
	runErr := ui.Run()
	ui.Stop()

	stopCtx, cancelStop := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelStop()
	if err := app.Stop(stopCtx); err != nil {
		logger.Warn("session stop", zap.Error(err))
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(1)
	}
}
