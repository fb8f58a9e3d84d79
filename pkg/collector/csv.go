package collector

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sync"

	"github.com/nergy-se/factoryenergy/pkg/api/v1/meter"
)

// CSV appends readings to a file, writing the header only when the file is new or empty.
type CSV struct {
	mu   sync.Mutex
	path string
}

func NewCSV(path string) *CSV {
	return &CSV{path: path}
}

func (c *CSV) Name() string {
	return "csv"
}

func (c *CSV) Write(ctx context.Context, readings []meter.Reading) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.OpenFile(c.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error opening %s: %w", c.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(meter.CSVHeader); err != nil {
			return err
		}
	}
	for _, r := range readings {
		if err := w.Write(r.CSVRecord()); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("error writing %s: %w", c.path, err)
	}
	return f.Close()
}

func (c *CSV) Close() error {
	return nil
}
