package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/tomz197/cubesketch/internal/config"
	"github.com/tomz197/cubesketch/internal/loop/client"
	"github.com/tomz197/cubesketch/internal/loop/server"
)

func main() {
	// The terminal is the game screen, so logs go to LOG_FILE or nowhere.
	logger, closeLog, err := config.NewFileLogger("cubesketch")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	settings := config.LoadGame()

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to enable raw mode: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := server.NewServer()
	go hub.Run(ctx)

	reader := bufio.NewReader(os.Stdin)
	c, err := client.NewClient(hub, reader, os.Stdout, client.ClientOptions{
		Username:         config.GetEnv("USER", "player"),
		Logger:           logger,
		Density:          settings.Density,
		ReferenceDensity: settings.ReferenceDensity,
		Duration:         settings.Duration,
	})
	if err == nil {
		err = c.Run()
	}
	if err != nil {
		_ = term.Restore(fd, oldState)
		fmt.Fprintf(os.Stderr, "game error: %v\n", err)
		os.Exit(1)
	}
}
