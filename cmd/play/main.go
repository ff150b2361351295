// Package main starts the console game client and handles termination.
//
// The client keeps in sync with a message board, hosts games created
// here, and takes part in games hosted by others.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	playcmd "github.com/parlorgames/parlor/internal/cmd/play"
)

func main() {
	cfg, err := playcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[PLAY] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := playcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to run client: %v", err)
	}
}
