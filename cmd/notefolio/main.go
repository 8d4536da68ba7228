package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/notefolio/notefolio/pkg/notefolio"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := notefolio.Main(ctx, os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("notefolio exited")
	}
}
