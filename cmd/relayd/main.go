package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/matheus3301/hrchat/internal/config"
	"github.com/matheus3301/hrchat/internal/daemon"
	"github.com/matheus3301/hrchat/internal/profile"
	"go.uber.org/fx"
)

func main() {
	configFlag := flag.String("config", "", "config file (default ~/.hrchat/config.toml)")
	consoleFlag := flag.Bool("console", false, "also log to stderr")
	flag.Parse()

	config.LoadDotEnv()

	path := *configFlag
	if path == "" {
		path = profile.ConfigPath()
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: load config: %v\n", err)
		os.Exit(1)
	}
	config.ApplyEnv(cfg, os.LookupEnv)
	if err := cfg.Relay.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	app := fx.New(
		daemon.Module(daemon.Params{Relay: cfg.Relay, Console: *consoleFlag}),
	)

	app.Run()
}
