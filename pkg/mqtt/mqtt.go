package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	mqttv2 "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/mochi-mqtt/server/v2/packets"
	"github.com/nergy-se/factoryenergy/pkg/api/v1/meter"
	"github.com/nergy-se/factoryenergy/pkg/machine"
	"github.com/sirupsen/logrus"
)

const (
	// TopicPattern is the default publish topic, {machine} is replaced by the machine id.
	TopicPattern = "factory/{machine}/energy"

	// ReadingsFilter matches every topic produced from TopicPattern.
	ReadingsFilter = "factory/#"
)

// Start runs an embedded broker listening on address until ctx is done.
func Start(ctx context.Context, wg *sync.WaitGroup, address string) (*mqttv2.Server, error) {
	server := mqttv2.New(&mqttv2.Options{
		InlineClient: true,
	})

	// Allow all connections.
	_ = server.AddHook(new(auth.AllowHook), nil)

	tcp := listeners.NewTCP(listeners.Config{ID: "t1", Address: address})
	err := server.AddListener(tcp)
	if err != nil {
		return nil, err
	}

	err = server.Serve()
	if err != nil {
		return nil, err
	}
	logrus.WithField("address", address).Info("mqtt broker started")

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		if err := server.Close(); err != nil {
			logrus.Errorf("error closing mqtt broker: %s", err)
		}
	}()
	return server, nil
}

// LogReadings subscribes the inline client to ReadingsFilter and logs every decoded reading.
func LogReadings(server *mqttv2.Server) error {
	return server.Subscribe(ReadingsFilter, 1, func(cl *mqttv2.Client, sub packets.Subscription, pk packets.Packet) {
		r, err := DecodeReading(pk.TopicName, pk.Payload)
		if err != nil {
			logrus.WithFields(logrus.Fields{"client": cl.ID, "topic": pk.TopicName}).Warn(err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"client":    cl.ID,
			"topic":     pk.TopicName,
			"machine":   r.Machine,
			"energy":    r.Energy,
			"timestamp": r.Timestamp,
		}).Info("reading received")
	})
}

func Topic(pattern, machineID string) string {
	return strings.ReplaceAll(pattern, "{machine}", machineID)
}

// DecodeReading parses a reading payload. When the topic names a machine it must agree with the payload.
func DecodeReading(topic string, payload []byte) (meter.Reading, error) {
	var r meter.Reading
	if err := json.Unmarshal(payload, &r); err != nil {
		return r, fmt.Errorf("error decoding reading: %w", err)
	}
	if !machine.Valid(r.Machine) {
		return r, fmt.Errorf("unknown machine %q", r.Machine)
	}
	for _, part := range strings.Split(topic, "/") {
		if machine.Valid(part) && part != r.Machine {
			return r, fmt.Errorf("topic %s does not match machine %s", topic, r.Machine)
		}
	}
	return r, nil
}
