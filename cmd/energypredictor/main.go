package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nergy-se/factoryenergy/pkg/api/v1/config"
	"github.com/nergy-se/factoryenergy/pkg/app"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGQUIT, syscall.SIGTERM)
	defer stop()
	err := Run(ctx)
	if err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func Run(ctx context.Context) error {
	config, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}
	err = app.SetupLogging(config.LogLevel, config.LogFormat)
	if err != nil {
		return err
	}

	app := app.New(config)

	err = app.Start(ctx)
	if err != nil {
		return err
	}

	app.Wait()
	return nil
}
