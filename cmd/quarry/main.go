// Package main is the entry point for the quarry build tool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/quarry/internal/app"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	command := "help"
	var args []string
	if len(os.Args) > 1 {
		command = os.Args[1]
		args = os.Args[2:]
	}

	versionString := version
	if commit != "unknown" {
		versionString = fmt.Sprintf("%s (%s)", version, commit)
	}

	application, err := app.New(app.Options{
		ConfigPath: os.Getenv("QUARRY_CONFIG"),
		Version:    versionString,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "quarry: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		cancel()
		application.Shutdown()
	}()

	return application.Run(ctx, command, args)
}
