package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/matheus3301/chatterm/internal/api"
	"github.com/matheus3301/chatterm/internal/boot"
	"github.com/matheus3301/chatterm/internal/chat"
	"github.com/matheus3301/chatterm/internal/config"
	"github.com/matheus3301/chatterm/internal/logging"
	"github.com/matheus3301/chatterm/internal/profile"
)

const binary = "chatctl"

// env is the resolved profile shared by every subcommand.
type env struct {
	profileFlag string
	jsonOut     bool
	timeout     time.Duration
	verbose     bool

	name    string
	profile config.Profile
	logger  *zap.Logger
	client  *api.Client
}

func main() {
	e := &env{}
	root := &cobra.Command{
		Use:           binary,
		Short:         "Scriptable access to a chatterm profile",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return e.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if e.logger != nil {
				_ = e.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&e.profileFlag, "profile", "", "profile name (overrides config default)")
	root.PersistentFlags().BoolVar(&e.jsonOut, "json", false, "output in JSON format")
	root.PersistentFlags().DurationVar(&e.timeout, "timeout", 30*time.Second, "overall deadline for the command")
	root.PersistentFlags().BoolVarP(&e.verbose, "verbose", "v", false, "mirror logs to stderr")

	root.AddCommand(
		contactsCmd(e),
		groupsCmd(e),
		historyCmd(e),
		groupHistoryCmd(e),
		sendCmd(e),
		uploadCmd(e),
		downloadCmd(e),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func (e *env) setup() error {
	name, p, err := profile.Load(e.profileFlag)
	if err != nil {
		return fmt.Errorf("profile %q: %w", name, err)
	}
	e.name, e.profile = name, p

	level := zapcore.InfoLevel
	if e.verbose {
		level = zapcore.DebugLevel
	}
	e.logger, err = logging.New(profile.LogPath(name, binary), name, logging.Options{Stderr: e.verbose, Level: level})
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}

	e.client, err = api.New(api.Options{
		BaseURL:       p.ServerURL,
		SessionCookie: p.SessionCookie,
		Timeout:       p.Timeout(),
		Logger:        e.logger.Named("api"),
	})
	return err
}

// controller builds an unstarted session for operations that carry client
// side rules. Nothing is dialed and the profile lock is left alone.
func (e *env) controller() (*chat.Controller, error) {
	var ctl *chat.Controller
	app := fx.New(
		fx.WithLogger(func() fxevent.Logger { return &fxevent.ZapLogger{Logger: e.logger.Named("fx")} }),
		fx.Supply(e.logger),
		boot.Module(boot.Params{ProfileName: e.name, Profile: e.profile, Binary: binary, SkipLock: true}),
		fx.Populate(&ctl),
	)
	if err := app.Err(); err != nil {
		return nil, err
	}
	return ctl, nil
}

func (e *env) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), e.timeout)
}

// print writes v as JSON when --json is set, otherwise runs text.
func (e *env) print(v any, text func()) {
	if !e.jsonOut {
		text()
		return
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}

func parseID(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", kind, s)
	}
	return id, nil
}
