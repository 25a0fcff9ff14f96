// Package local opens everything a chat client needs for one profile:
// config, lock, log file, history database, event bus, relay transport,
// chat session and directory client.
package local

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matheus3301/hrchat/internal/bus"
	"github.com/matheus3301/hrchat/internal/chat"
	"github.com/matheus3301/hrchat/internal/client"
	"github.com/matheus3301/hrchat/internal/config"
	"github.com/matheus3301/hrchat/internal/directory"
	"github.com/matheus3301/hrchat/internal/lock"
	"github.com/matheus3301/hrchat/internal/logging"
	"github.com/matheus3301/hrchat/internal/profile"
	"github.com/matheus3301/hrchat/internal/store"
	"go.uber.org/zap"
)

// Options selects the profile and how it is opened.
type Options struct {
	Profile    string
	ConfigPath string
	Component  string
	Console    bool
	// Lock takes the profile lock. Read-only commands leave it off.
	Lock bool
	// Notifier builds the session notifier from the env's bus. Nil means
	// inbound messages are not surfaced.
	Notifier func(b *bus.Bus) chat.Notifier
}

// Env is an opened profile. Close releases it.
type Env struct {
	Profile   string
	Config    *config.Config
	Self      directory.Self
	Logger    *zap.Logger
	DB        *store.DB
	Bus       *bus.Bus
	Transport *client.Transport
	Session   *chat.Session
	Directory *directory.Client

	lock *lock.Lock
}

// Open resolves, validates and opens a profile. The returned session has
// its history restored but is not connected.
func Open(ctx context.Context, opts Options) (*Env, error) {
	name := profile.Resolve(opts.Profile)
	if err := profile.ValidateName(name); err != nil {
		return nil, err
	}

	cfgPath := opts.ConfigPath
	if cfgPath == "" {
		cfgPath = profile.ConfigPath()
	}
	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	config.ApplyEnv(cfg, nil)
	if err := cfg.Client.Validate(); err != nil {
		return nil, err
	}
	if err := profile.EnsureDir(name); err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}

	env := &Env{
		Profile: name,
		Config:  cfg,
		Self: directory.Self{
			ID:    cfg.Client.Identity(time.Now()),
			Email: cfg.Client.Email,
		},
	}
	ok := false
	defer func() {
		if !ok {
			_ = env.Close()
		}
	}()

	if opts.Lock {
		if env.lock, err = lock.Acquire(profile.Dir(name), env.Self.ID); err != nil {
			return nil, err
		}
	}

	env.Logger, err = logging.New(logging.Options{
		Path:      profile.LogPath(name),
		Level:     cfg.Client.LogLevel,
		Console:   opts.Console,
		Component: opts.Component,
		Profile:   name,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	if env.DB, err = store.Open(profile.HistoryDBPath(name)); err != nil {
		return nil, err
	}
	res, err := env.DB.Migrate()
	if err != nil {
		return nil, fmt.Errorf("migrate history: %w", err)
	}
	env.Logger.Debug("history schema ready", zap.Uint("version", res.Version), zap.Bool("changed", res.Changed))

	env.Bus = bus.New()
	env.Transport = client.New(client.Options{
		URL:            cfg.Client.RelayURL,
		ReconnectDelay: cfg.Client.ReconnectDelay.Duration,
	}, env.Bus, env.Logger)

	var notifier chat.Notifier
	if opts.Notifier != nil {
		notifier = opts.Notifier(env.Bus)
	}
	env.Session = chat.NewSession(chat.Params{
		UserID:       env.Self.ID,
		Name:         cfg.Client.DisplayName(),
		Emitter:      env.Transport,
		History:      env.DB,
		Notifier:     notifier,
		Bus:          env.Bus,
		Logger:       env.Logger,
		DedupSize:    cfg.Client.DedupSize,
		DedupTTL:     cfg.Client.DedupTTL.Duration,
		NotifyWindow: cfg.Client.NotifyWindow.Duration,
	})
	if err := env.Session.Restore(ctx); err != nil {
		return nil, err
	}

	if cfg.Client.DirectoryURL != "" {
		env.Directory = directory.New(cfg.Client.DirectoryURL, env.DB, env.Logger)
	}

	env.Logger.Info("profile opened",
		zap.String("user", env.Self.ID),
		zap.String("relay", cfg.Client.RelayURL),
	)
	ok = true
	return env, nil
}

// Close releases the database, log and lock in reverse order of Open.
func (e *Env) Close() error {
	var errs []error
	if e.DB != nil {
		errs = append(errs, e.DB.Close())
	}
	if e.Logger != nil {
		_ = e.Logger.Sync()
	}
	if e.lock != nil {
		errs = append(errs, e.lock.Release())
	}
	return errors.Join(errs...)
}
