package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/nergy-se/factoryenergy/pkg/collector"
	"github.com/nergy-se/factoryenergy/pkg/training"
	"github.com/sirupsen/logrus"
)

var csvPath = flag.String("csv", "", "train from a csv file of readings (machine,energy,timestamp[,hour])")
var sqlitePath = flag.String("sqlite", "", "train from the readings table of a collector sqlite database")
var synthetic = flag.Int("synthetic", 1000, "number of synthetic samples when no input is given")
var seed = flag.Int64("seed", 42, "random seed for synthetic data and the train/test split")
var testFraction = flag.Float64("test-fraction", 0.2, "share of samples held out for scoring")
var output = flag.String("out", "energy_predictor.json", "model output path")
var modelVersion = flag.String("version", "1", "version recorded in the model")

func main() {
	flag.Parse()
	err := run(context.Background())
	if err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	samples, err := loadSamples(ctx)
	if err != nil {
		return err
	}

	m, err := training.Train(samples, training.Options{
		TestFraction: *testFraction,
		Seed:         *seed,
		Version:      *modelVersion,
	})
	if err != nil {
		return err
	}

	err = m.Save(*output)
	if err != nil {
		return err
	}

	fmt.Printf("model written to %s\n", *output)
	fmt.Printf("intercept: %.4f\n", m.Intercept)
	for _, name := range m.Features {
		fmt.Printf("%s: %.4f\n", name, m.Coefficients[name])
	}
	fmt.Printf("r2 train: %.4f test: %.4f\n", m.R2Train, m.R2Test)
	return nil
}

func loadSamples(ctx context.Context) ([]training.Sample, error) {
	switch {
	case *csvPath != "":
		f, err := os.Open(*csvPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return training.ReadCSV(f)
	case *sqlitePath != "":
		db, err := collector.OpenSQLite(*sqlitePath)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		readings, err := db.Readings(ctx)
		if err != nil {
			return nil, err
		}
		return training.FromReadings(readings), nil
	}
	logrus.Infof("no input given, generating %d synthetic samples", *synthetic)
	return training.Synthetic(*synthetic, *seed), nil
}
