package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	mqttv2 "github.com/mochi-mqtt/server/v2"
	"github.com/nergy-se/factoryenergy/pkg/api/v1/meter"
	"github.com/sirupsen/logrus"
)

const qos = 1

type ClientConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

// Sink publishes each reading to its machine topic.
type Sink struct {
	name    string
	pattern string
	publish func(topic string, payload []byte) error
	close   func() error
}

// Dial connects a paho client to a remote broker.
func Dial(cfg ClientConfig, pattern string) (*Sink, error) {
	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logrus.Warnf("mqtt connection lost: %s", err)
	})

	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("error connecting to mqtt broker: %w", token.Error())
	}
	logrus.WithField("broker", cfg.Broker).Info("connected to mqtt broker")

	return &Sink{
		name:    "mqtt",
		pattern: pattern,
		publish: func(topic string, payload []byte) error {
			token := client.Publish(topic, qos, false, payload)
			if !token.WaitTimeout(5 * time.Second) {
				return fmt.Errorf("timeout publishing to %s", topic)
			}
			return token.Error()
		},
		close: func() error {
			client.Disconnect(250)
			return nil
		},
	}, nil
}

// Inline publishes through the inline client of an embedded broker.
func Inline(server *mqttv2.Server, pattern string) *Sink {
	return &Sink{
		name:    "mqtt",
		pattern: pattern,
		publish: func(topic string, payload []byte) error {
			return server.Publish(topic, payload, false, qos)
		},
		close: func() error { return nil },
	}
}

func (s *Sink) Name() string {
	return s.name
}

func (s *Sink) Write(ctx context.Context, readings []meter.Reading) error {
	var errs []error
	for _, r := range readings {
		payload, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("error encoding reading: %w", err)
		}
		topic := Topic(s.pattern, r.Machine)
		if err := s.publish(topic, payload); err != nil {
			errs = append(errs, fmt.Errorf("error publishing to %s: %w", topic, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Sink) Close() error {
	return s.close()
}
