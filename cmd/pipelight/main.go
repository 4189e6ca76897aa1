// Command pipelight runs declared shell-command pipelines from the CLI,
// git hooks, or a filesystem watcher.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/kodelint/pipelight/internal/cli"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	abortCh := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("received signal, aborting in-flight pipeline")
		close(abortCh)
	}()

	root := cli.Root(log, abortCh)
	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("pipelight command failed")
		os.Exit(1)
	}
}
