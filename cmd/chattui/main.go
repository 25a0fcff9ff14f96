package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/matheus3301/hrchat/internal/bus"
	"github.com/matheus3301/hrchat/internal/chat"
	"github.com/matheus3301/hrchat/internal/config"
	"github.com/matheus3301/hrchat/internal/local"
	"github.com/matheus3301/hrchat/internal/tui"
	"go.uber.org/zap"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	configFlag := flag.String("config", "", "config file (default ~/.hrchat/config.toml)")
	flag.Parse()

	config.LoadDotEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := local.Open(ctx, local.Options{
		Profile:    *profileFlag,
		ConfigPath: *configFlag,
		Component:  "chattui",
		Lock:       true,
		Notifier:   func(b *bus.Bus) chat.Notifier { return tui.NewNotifier(b) },
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := env.Transport.Run(ctx, env.Session); err != nil && ctx.Err() == nil {
			env.Logger.Error("relay transport stopped", zap.Error(err))
		}
	}()

	app := tui.NewApp(tui.Options{
		Profile:   env.Profile,
		RelayURL:  env.Config.Client.RelayURL,
		Self:      env.Self,
		Session:   env.Session,
		Transport: env.Transport,
		Bus:       env.Bus,
		Searcher:  env.DB,
		Directory: env.Directory,
		Logger:    env.Logger,
	})
	runErr := app.Run(ctx)
	stop()
	<-done
	_ = env.Close()
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(1)
	}
}
