package config

import (
	"bytes"
	"fmt"
	"os"
)

// readSecretFile returns the trimmed content of path. An empty path yields an empty secret.
func readSecretFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("error reading secret file: %w", err)
	}
	return string(bytes.TrimSpace(bytes.Trim(b, "\x00"))), nil
}

// loadSecrets fills passwords from their files unless they were given directly.
func (c *SimulatorConfig) loadSecrets() error {
	var err error
	if c.ClickhousePassword == "" {
		c.ClickhousePassword, err = readSecretFile(c.ClickhousePasswordFile)
		if err != nil {
			return err
		}
	}
	if c.MQTTPassword == "" {
		c.MQTTPassword, err = readSecretFile(c.MQTTPasswordFile)
		if err != nil {
			return err
		}
	}
	return nil
}
