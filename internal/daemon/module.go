// Package daemon wires relayd together with fx.
package daemon

import (
	"context"

	"github.com/matheus3301/hrchat/internal/config"
	"github.com/matheus3301/hrchat/internal/logging"
	"github.com/matheus3301/hrchat/internal/metrics"
	"github.com/matheus3301/hrchat/internal/profile"
	"github.com/matheus3301/hrchat/internal/ratelimit"
	"github.com/matheus3301/hrchat/internal/relay"
	"github.com/matheus3301/hrchat/internal/server"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved relay configuration passed to the fx module.
type Params struct {
	Relay config.RelayConfig
	// Console mirrors the log to stderr.
	Console bool
}

// Module returns the fx module for relayd, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("relayd",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideMetrics,
			provideRelay,
			provideLimiters,
			provideServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	path := p.Relay.LogPath
	if path == "" {
		path = profile.RelayLogPath()
	}
	return logging.New(logging.Options{
		Path:      path,
		Level:     p.Relay.LogLevel,
		Console:   p.Console,
		Component: "relayd",
	})
}

func provideMetrics() *metrics.Relay {
	return metrics.NewRelay()
}

func provideRelay(p Params, m *metrics.Relay, logger *zap.Logger) *relay.Relay {
	return relay.New(relay.Options{CloseStaleOnRejoin: p.Relay.CloseStaleOnRejoin}, m, logger.Named("relay"))
}

func provideLimiters(p Params) (*ratelimit.ConnLimiter, *ratelimit.EventLimiter) {
	return ratelimit.NewConnLimiter(p.Relay.MaxConnsPerIP),
		ratelimit.NewEventLimiter(p.Relay.EventRate, p.Relay.EventBurst)
}

func provideServer(p Params, r *relay.Relay, m *metrics.Relay, conns *ratelimit.ConnLimiter, events *ratelimit.EventLimiter, logger *zap.Logger) *server.Server {
	return server.New(server.OptionsFrom(p.Relay), r, m, conns, events, logger.Named("server"))
}

func registerLifecycle(lc fx.Lifecycle, p Params, r *relay.Relay, srv *server.Server, logger *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				r.Run(ctx)
				close(done)
			}()
			if err := srv.Start(); err != nil {
				cancel()
				return err
			}
			logger.Info("relayd started",
				zap.String("addr", srv.Addr().String()),
				zap.Strings("allowed_origins", p.Relay.AllowedOrigins),
			)
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			if err := srv.Stop(stopCtx); err != nil {
				logger.Warn("error stopping server", zap.Error(err))
			}
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			logger.Info("relayd stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
