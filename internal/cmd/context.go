package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/kavach/internal/config"
	"github.com/felixgeelhaar/kavach/internal/endpoint"
	"github.com/felixgeelhaar/kavach/internal/errors"
	"github.com/felixgeelhaar/kavach/internal/gateway"
	"github.com/felixgeelhaar/kavach/internal/log"
	"github.com/felixgeelhaar/kavach/internal/metrics"
	"github.com/felixgeelhaar/kavach/internal/notify"
	"github.com/felixgeelhaar/kavach/internal/portal"
	"github.com/felixgeelhaar/kavach/internal/session"
	"github.com/felixgeelhaar/kavach/internal/tui"
	"github.com/felixgeelhaar/kavach/internal/ux"
)

// skipSetup marks commands that run without config, session or gateway
const skipSetup = "kavach/skip-setup"

// CommandContext holds the persistent flags and the services built from
// them. One is created per process; commands read it instead of globals.
type CommandContext struct {
	// Flags
	ConfigPath  string
	Format      string
	Verbose     bool
	LogLevel    string
	Ephemeral   bool
	MetricsDump bool

	// Output
	Out    io.Writer
	ErrOut io.Writer

	// Services, populated by Setup
	Config   *config.Config
	Logger   *log.Logger
	Store    session.Store
	Session  *session.Manager
	Notifier *notify.Notifier
	Busy     *notify.Busy
	Registry *endpoint.Registry
	Gateway  *gateway.Gateway
	Client   *portal.Client
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	interactive func() bool

	command string
	started time.Time
	closers []func() error
}

// NewCommandContext returns a context writing to stdout and stderr
func NewCommandContext() *CommandContext {
	return &CommandContext{
		Out:         os.Stdout,
		ErrOut:      os.Stderr,
		interactive: tui.ShouldPrompt,
	}
}

// Setup loads configuration and wires the session, notifications,
// gateway and portal client.
func (c *CommandContext) Setup(ctx context.Context, cmd *cobra.Command) error {
	c.command = cmd.CommandPath()
	c.started = time.Now()

	path := c.ConfigPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	c.Config = cfg
	c.ConfigPath = path

	if c.Format == "" {
		c.Format = cfg.Defaults.Format
	}
	if _, err := ux.NewFormatter(c.Format, nil); err != nil {
		return errors.Wrap(errors.ErrCodeConfigInvalid, "invalid output format", err).
			WithSuggestion("Use --format text, json or yaml")
	}

	level := cfg.Logging.Level
	if c.LogLevel != "" {
		level = c.LogLevel
	}
	if c.Verbose {
		level = "debug"
	}
	c.Logger = log.New(log.FromStrings(level, cfg.Logging.Format, c.ErrOut))
	log.SetDefaultLogger(c.Logger)

	reg, m := metrics.NewRegistry()
	c.Metrics = m
	c.Gatherer = reg

	store, err := c.openStore()
	if err != nil {
		return err
	}
	c.Store = store

	var nav session.Navigator = session.NewTerminalNavigator(c.ErrOut)
	if c.Format != "text" {
		nav = &session.Recorder{}
	}
	c.Session = session.NewManager(store, nav, session.WithLogger(c.Logger))

	if c.Format == "text" {
		c.Busy = notify.NewBusy(notify.BusyConfig{Writer: c.ErrOut, Animate: isTerminal(c.ErrOut)})
	} else {
		c.Busy = notify.NewSilentBusy()
	}

	c.Notifier = notify.NewNotifier(notify.Config{
		ShowDelay:  cfg.Notify.ShowDelay,
		VisibleFor: cfg.Notify.VisibleFor,
	}, c.ErrOut, notify.WithBusy(c.Busy))
	c.closers = append(c.closers, func() error {
		c.Notifier.Flush()
		return nil
	})

	c.Registry = endpoint.Default(cfg.APIBase())

	opts := []gateway.Option{
		gateway.WithMetrics(m),
		gateway.WithLogger(c.Logger),
		gateway.WithUserAgent(versionInfo().UserAgent()),
	}
	c.Gateway = gateway.New(c.Session, c.Notifier, opts...)
	c.Client = portal.NewClient(c.Registry, c.Gateway, c.Session,
		portal.WithMetrics(m), portal.WithLogger(c.Logger))

	c.Logger.DebugContext(ctx, "command context ready",
		"command", c.command,
		"api", cfg.APIBase(),
		"session_backend", c.sessionBackend())
	return nil
}

func (c *CommandContext) sessionBackend() string {
	if c.Ephemeral {
		return config.BackendMemory
	}
	return c.Config.Session.Backend
}

func (c *CommandContext) openStore() (session.Store, error) {
	switch c.sessionBackend() {
	case config.BackendMemory:
		return session.NewMemoryStore(), nil
	case config.BackendRedis:
		rs := session.NewRedisStore(session.RedisOptions{
			Addr:   c.Config.Session.RedisAddr,
			Prefix: c.Config.Session.RedisPrefix,
			TTL:    c.Config.Session.RedisTTL,
		})
		c.closers = append(c.closers, rs.Close)
		return rs, nil
	default:
		path, err := c.Config.SessionPath()
		if err != nil {
			return nil, err
		}
		return session.NewFileStore(path, c.Config.SessionPassphrase()), nil
	}
}

// Finish records the command outcome, releases resources and dumps
// metrics when asked. It is safe to call when Setup never ran.
func (c *CommandContext) Finish(err error) {
	if c.Metrics != nil && c.command != "" {
		c.Metrics.RecordCommand(c.command, err == nil, time.Since(c.started))
		if kerr, ok := asKavachError(err); ok {
			c.Metrics.RecordError(string(kerr.Code))
		}
	}

	for i := len(c.closers) - 1; i >= 0; i-- {
		if cerr := c.closers[i](); cerr != nil && c.Logger != nil {
			c.Logger.WithError(cerr).Warn("cleanup failed")
		}
	}
	c.closers = nil

	if c.MetricsDump && c.Gatherer != nil {
		if derr := metrics.Dump(c.ErrOut, c.Gatherer); derr != nil {
			fmt.Fprintf(c.ErrOut, "failed to dump metrics: %v\n", derr)
		}
	}
}

// Output writes a command result in the selected format
func (c *CommandContext) Output(data interface{}) error {
	f, err := ux.NewFormatter(c.Format, &ux.FormatterOptions{Writer: c.Out})
	if err != nil {
		return err
	}
	return f.Format(data)
}

// RequireSession gates a command on an authenticated session. intended is
// where the user is sent after logging in.
func (c *CommandContext) RequireSession(ctx context.Context, intended session.Destination) error {
	if c.Session.RequireSession(ctx, intended) {
		return nil
	}
	return errors.NewAuthRequiredError(string(c.Session.CurrentCategory(ctx)))
}

// RequireEmployee gates a command on an employee session
func (c *CommandContext) RequireEmployee(ctx context.Context, intended session.Destination) error {
	if err := c.RequireSession(ctx, intended); err != nil {
		return err
	}
	if c.Session.CurrentCategory(ctx) != session.Employee {
		return errors.New(errors.ErrCodeAuthCategory, "this command needs an employee session").
			WithSuggestion("Run 'kavach auth login --as employee'")
	}
	return nil
}

// withBusy runs fn with the busy indicator showing message
func withBusy[T any](c *CommandContext, message string, fn func() (T, error)) (T, error) {
	c.Busy.Present(message)
	defer c.Busy.Dismiss()
	return fn()
}

// CanPrompt reports whether interactive forms may be shown
func (c *CommandContext) CanPrompt() bool {
	return c.Format == "text" && c.interactive != nil && c.interactive()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
