package collector

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// cronLogger sends cron's logging through logrus. A skipped run is a warning, the rest is debug output.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	entry := logrus.WithFields(cronFields(keysAndValues))
	if msg == "skip" {
		entry.Warn("previous collection still running, skipping scheduled run")
		return
	}
	entry.Debugf("cron: %s", msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logrus.WithFields(cronFields(keysAndValues)).Errorf("cron: %s: %s", msg, err)
}

func cronFields(keysAndValues []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
