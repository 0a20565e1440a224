package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-shop-admin/apiclient"
	"github.com/jrsteele09/go-shop-admin/internal/app"
	"github.com/jrsteele09/go-shop-admin/internal/config"
	apperrors "github.com/jrsteele09/go-shop-admin/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

func run(args []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("Recovered from panic: %v", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	setupLogger(c.GetEnv())

	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		displayAppname(c.GetAppName())
		printUsage()
		return nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		printUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, c)
	if err != nil {
		log.Err(err).Msg("Failed to start")
		return err
	}
	defer a.Close()

	if !cmd.public {
		if _, err := a.Authenticate(ctx); err != nil {
			report(a, err)
			return err
		}
	}
	if err := cmd.run(ctx, a, args[1:]); err != nil {
		report(a, err)
		return err
	}
	return nil
}

func report(a *app.App, err error) {
	switch {
	case errors.Is(err, flag.ErrHelp), errors.Is(err, apperrors.ErrNotAuthenticated):
	case apiclient.KindOf(err) != apiclient.KindUnknown:
		a.Reporter.Report(err)
	default:
		log.Err(err).Msg("Command failed")
	}
}

func setupLogger(env string) {
	level := zerolog.InfoLevel
	if env == "DEV" {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
