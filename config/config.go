package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	envMQTTUsername = "AIRTHINGS_MQTT_USERNAME"
	envMQTTPassword = "AIRTHINGS_MQTT_PASSWORD"
)

type Config struct {
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Device  DeviceConfig  `yaml:"device"`
	Poll    PollConfig    `yaml:"poll"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type MQTTConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// minimum gap between two connection attempts
	RetrySeconds int `yaml:"retry_seconds"`
}

type DeviceConfig struct {
	SerialNumber uint32 `yaml:"serial_number"`

	// skips discovery when set
	Address string `yaml:"address"`

	ScanRounds        int `yaml:"scan_rounds"`
	ScanWindowMillis  int `yaml:"scan_window_ms"`
	ConnectTimeoutSec int `yaml:"connect_timeout_seconds"`
	ReadRetries       int `yaml:"read_retries"`
	HCI               int `yaml:"hci"`
}

type PollConfig struct {
	IntervalSeconds int  `yaml:"interval_seconds"`
	Stdout          bool `yaml:"stdout"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type MetricsConfig struct {
	// empty disables the endpoint
	ListenAddress string `yaml:"listen_address"`
}

func Default() Config {
	return Config{
		MQTT: MQTTConfig{
			Host:         "127.0.0.1",
			Port:         1883,
			Topic:        "airthings/bedroom",
			ClientID:     "waveplus-bedroom",
			RetrySeconds: 30,
		},
		Device: DeviceConfig{
			ScanRounds:        100,
			ScanWindowMillis:  100,
			ConnectTimeoutSec: 10,
			ReadRetries:       1,
		},
		Poll: PollConfig{
			IntervalSeconds: 30,
			Stdout:          true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			ListenAddress: ":8080",
		},
	}
}

// Load reads a YAML file on top of the defaults and applies environment
// overrides. An empty path means defaults plus environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(err, "failed to read config file")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrapf(err, "failed to parse config file %s", path)
		}
	}

	if v, ok := os.LookupEnv(envMQTTUsername); ok {
		cfg.MQTT.Username = v
	}
	if v, ok := os.LookupEnv(envMQTTPassword); ok {
		cfg.MQTT.Password = v
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.MQTT.Host) == "" {
		return errors.New("mqtt.host is required")
	}
	if c.MQTT.Port < 1 || c.MQTT.Port > 65535 {
		return errors.Errorf("mqtt.port %d out of range", c.MQTT.Port)
	}
	if c.MQTT.Topic == "" {
		return errors.New("mqtt.topic is required")
	}
	if strings.ContainsAny(c.MQTT.Topic, "+#") {
		return errors.Errorf("mqtt.topic %q must not contain wildcards", c.MQTT.Topic)
	}
	if strings.HasSuffix(c.MQTT.Topic, "/") {
		return errors.Errorf("mqtt.topic %q must not end with /", c.MQTT.Topic)
	}
	if c.MQTT.ClientID == "" {
		return errors.New("mqtt.client_id is required")
	}
	if c.MQTT.RetrySeconds <= 0 {
		return errors.New("mqtt.retry_seconds must be positive")
	}
	if c.Device.SerialNumber == 0 && c.Device.Address == "" {
		return errors.New("device.serial_number or device.address is required")
	}
	if c.Device.ScanRounds <= 0 || c.Device.ScanWindowMillis <= 0 {
		return errors.New("device.scan_rounds and device.scan_window_ms must be positive")
	}
	if c.Device.ConnectTimeoutSec <= 0 {
		return errors.New("device.connect_timeout_seconds must be positive")
	}
	if c.Poll.IntervalSeconds <= 0 {
		return errors.New("poll.interval_seconds must be positive")
	}
	return nil
}

func (c MQTTConfig) RetryInterval() time.Duration {
	return time.Duration(c.RetrySeconds) * time.Second
}

func (c DeviceConfig) ScanWindow() time.Duration {
	return time.Duration(c.ScanWindowMillis) * time.Millisecond
}

func (c DeviceConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutSec) * time.Second
}

func (c PollConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}
