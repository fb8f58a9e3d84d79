package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/nergy-se/factoryenergy/pkg/api/v1/config"
	"github.com/nergy-se/factoryenergy/pkg/app"
	"github.com/nergy-se/factoryenergy/pkg/collector"
	"github.com/nergy-se/factoryenergy/pkg/metrics"
	"github.com/nergy-se/factoryenergy/pkg/modbusclient"
	"github.com/nergy-se/factoryenergy/pkg/mqtt"
	"github.com/nergy-se/factoryenergy/pkg/simulator"
	"github.com/prometheus/client_golang/prometheus"
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
	conf, err := config.LoadSimulator(os.Args[1:])
	if err != nil {
		return err
	}
	err = app.SetupLogging(conf.LogLevel, conf.LogFormat)
	if err != nil {
		return err
	}

	wg := &sync.WaitGroup{}
	defer wg.Wait()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	source, closeSource, err := newSource(conf)
	if err != nil {
		return err
	}
	defer closeSource()

	sinks, err := newSinks(ctx, wg, conf)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	m := metrics.NewCollector(reg)
	if conf.MetricsListen != "" {
		serveMetrics(ctx, wg, conf.MetricsListen, reg)
	}

	c := collector.New(source, sinks, m, conf.SummaryEvery)
	return c.Run(ctx, conf.Schedule)
}

func newSource(conf *config.SimulatorConfig) (collector.Source, func(), error) {
	if conf.Source != config.SourceModbus {
		return simulator.New(conf.Seed, nil), func() {}, nil
	}

	registers, err := conf.Registers()
	if err != nil {
		return nil, nil, err
	}
	client := modbusclient.Dial(conf.ModbusAddress, byte(conf.ModbusSlaveID), 5*time.Second)
	closeClient := func() {
		if err := client.Close(); err != nil {
			logrus.Errorf("error closing modbus client: %s", err)
		}
	}
	return collector.NewModbusSource(client, registers), closeClient, nil
}

func newSinks(ctx context.Context, wg *sync.WaitGroup, conf *config.SimulatorConfig) ([]collector.Sink, error) {
	var sinks []collector.Sink
	closeAll := func() {
		for _, s := range sinks {
			s.Close()
		}
	}

	if conf.CSVPath != "" {
		sinks = append(sinks, collector.NewCSV(conf.CSVPath))
	}

	if conf.SqlitePath != "" {
		s, err := collector.OpenSQLite(conf.SqlitePath)
		if err != nil {
			closeAll()
			return nil, err
		}
		sinks = append(sinks, s)
	}

	if conf.ClickhouseAddr != "" {
		s, err := collector.OpenClickHouse(ctx, collector.ClickHouseOptions{
			Addr:     conf.ClickhouseAddr,
			Database: conf.ClickhouseDatabase,
			Username: conf.ClickhouseUsername,
			Password: conf.ClickhousePassword,
		})
		if err != nil {
			closeAll()
			return nil, err
		}
		sinks = append(sinks, s)
	}

	if brokers := conf.Brokers(); len(brokers) > 0 {
		sinks = append(sinks, collector.NewKafka(brokers, conf.KafkaTopic))
	}

	switch conf.MQTTBroker {
	case "":
	case config.MQTTEmbedded:
		server, err := mqtt.Start(ctx, wg, conf.MQTTEmbeddedListen)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("error starting mqtt broker: %w", err)
		}
		sinks = append(sinks, mqtt.Inline(server, mqtt.TopicPattern))
	default:
		s, err := mqtt.Dial(mqtt.ClientConfig{
			Broker:   conf.MQTTBroker,
			ClientID: conf.MQTTClientID,
			Username: conf.MQTTUsername,
			Password: conf.MQTTPassword,
		}, mqtt.TopicPattern)
		if err != nil {
			closeAll()
			return nil, err
		}
		sinks = append(sinks, s)
	}

	if len(sinks) == 0 {
		return nil, errors.New("no sinks configured")
	}
	return sinks, nil
}

func serveMetrics(ctx context.Context, wg *sync.WaitGroup, addr string, reg *prometheus.Registry) {
	router := mux.NewRouter()
	router.Handle("/metrics", metrics.Handler(reg)).Methods("GET")
	srv := &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 10 * time.Second}

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Errorf("error serving metrics: %s", err)
		}
	}()
	go func() {
		defer wg.Done()
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
}
