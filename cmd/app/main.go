package main

import (
	"context"
	"log"
	"os"

	"retail-suite/internal/adapters/cli"
	"retail-suite/internal/adapters/repl"
	"retail-suite/internal/bootstrap"
	"retail-suite/internal/config"
	"retail-suite/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	// Command output owns stdout.
	logger, err := logging.New(logging.Options{Mode: cfg.LogMode, Level: "warn", File: cfg.LogFile, Stderr: true})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	rt, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer rt.Close()

	if len(os.Args) > 1 {
		err = cli.Run(ctx, rt.Service, os.Args[1:], os.Stdout)
	} else {
		err = repl.Run(ctx, rt.Service, os.Stdin, os.Stdout)
	}
	if err != nil {
		rt.Close()
		log.Fatal(err)
	}
}
