package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/nergy-se/factoryenergy/pkg/app"
	"github.com/nergy-se/factoryenergy/pkg/mqtt"
	"github.com/sirupsen/logrus"
)

var address = flag.String("addr", ":1883", "tcp listen address")
var logLevel = flag.String("loglevel", "info", "")

func main() {
	flag.Parse()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGQUIT, syscall.SIGTERM)
	defer stop()

	err := app.SetupLogging(*logLevel, "text")
	if err != nil {
		logrus.Fatal(err)
	}

	wg := &sync.WaitGroup{}
	server, err := mqtt.Start(ctx, wg, *address)
	if err != nil {
		logrus.Fatal(err)
	}

	err = mqtt.LogReadings(server)
	if err != nil {
		logrus.Error(err)
		stop()
	}

	wg.Wait()
}
