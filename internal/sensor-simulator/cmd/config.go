package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/LeonardoBeccarini/sensor_simulator/pkg/influx"
	"github.com/LeonardoBeccarini/sensor_simulator/pkg/rabbitmq"
)

const envPrefix = "sensorsim"

type BreakerConfig struct {
	Enabled  bool
	Failures int
	OpenFor  time.Duration
}

type MQTTConfig struct {
	Enabled     bool
	Broker      rabbitmq.RabbitMQConfig
	TopicPrefix string
}

type InfluxConfig struct {
	Enabled bool
	influx.Config
}

type Config struct {
	Endpoint    string
	HTTPTimeout time.Duration
	StopGrace   time.Duration
	ErrorPause  time.Duration
	Mode        string
	Seed        int64

	LogLevel  string
	LogFormat string

	Breaker BreakerConfig
	MQTT    MQTTConfig
	Influx  InfluxConfig

	StatusHTTPAddr string
	StatusGRPCAddr string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("endpoint", "http://localhost:5046/api/DeviceData")
	v.SetDefault("http.timeout", 10*time.Second)
	v.SetDefault("stop.grace", 2*time.Second)
	v.SetDefault("loop.error_pause", time.Second)
	v.SetDefault("mode", "")
	v.SetDefault("seed", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("breaker.enabled", false)
	v.SetDefault("breaker.failures", 5)
	v.SetDefault("breaker.open_for", 30*time.Second)

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.host", "localhost")
	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.user", "guest")
	v.SetDefault("mqtt.password", "guest")
	v.SetDefault("mqtt.client_id", "")
	v.SetDefault("mqtt.topic_prefix", "sensor/data")

	v.SetDefault("influx.enabled", false)
	v.SetDefault("influx.url", "http://localhost:8086")
	v.SetDefault("influx.token", "")
	v.SetDefault("influx.org", "sensorsim")
	v.SetDefault("influx.bucket", "readings")
	v.SetDefault("influx.measurement", "sensor_reading")

	v.SetDefault("status.http_addr", "")
	v.SetDefault("status.grpc_addr", "")
}

// loadConfig merges defaults, an optional config file, SENSORSIM_* env vars and flags (highest).
func loadConfig(args []string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	fs := pflag.NewFlagSet("sensor-simulator", pflag.ContinueOnError)
	configFile := fs.String("config", "", "path to a config file (yaml, json, toml)")
	fs.String("endpoint", "", "device-data API endpoint")
	fs.String("mode", "", "start directly in normal|alert|mixed mode, skipping the menu")
	fs.String("log-level", "", "debug|info|warn|error")
	fs.Int64("seed", 0, "random seed, 0 uses the clock")
	fs.String("status-http", "", "listen address for /healthz, /readyz and /metrics")
	fs.String("status-grpc", "", "listen address for the gRPC health service")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	for key, flag := range map[string]string{
		"endpoint":         "endpoint",
		"mode":             "mode",
		"log.level":        "log-level",
		"seed":             "seed",
		"status.http_addr": "status-http",
		"status.grpc_addr": "status-grpc",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if *configFile != "" {
		v.SetConfigFile(*configFile)
	} else {
		v.SetConfigName("sensorsim")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/sensorsim")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if *configFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		Endpoint:    strings.TrimSpace(v.GetString("endpoint")),
		HTTPTimeout: v.GetDuration("http.timeout"),
		StopGrace:   v.GetDuration("stop.grace"),
		ErrorPause:  v.GetDuration("loop.error_pause"),
		Mode:        strings.TrimSpace(v.GetString("mode")),
		Seed:        v.GetInt64("seed"),
		LogLevel:    v.GetString("log.level"),
		LogFormat:   v.GetString("log.format"),
		Breaker: BreakerConfig{
			Enabled:  v.GetBool("breaker.enabled"),
			Failures: v.GetInt("breaker.failures"),
			OpenFor:  v.GetDuration("breaker.open_for"),
		},
		MQTT: MQTTConfig{
			Enabled: v.GetBool("mqtt.enabled"),
			Broker: rabbitmq.RabbitMQConfig{
				Host:     v.GetString("mqtt.host"),
				Port:     v.GetInt("mqtt.port"),
				User:     v.GetString("mqtt.user"),
				Password: v.GetString("mqtt.password"),
				ClientID: v.GetString("mqtt.client_id"),
			},
			TopicPrefix: v.GetString("mqtt.topic_prefix"),
		},
		Influx: InfluxConfig{
			Enabled: v.GetBool("influx.enabled"),
			Config: influx.Config{
				URL:         v.GetString("influx.url"),
				Token:       v.GetString("influx.token"),
				Org:         v.GetString("influx.org"),
				Bucket:      v.GetString("influx.bucket"),
				Measurement: v.GetString("influx.measurement"),
			},
		},
		StatusHTTPAddr: v.GetString("status.http_addr"),
		StatusGRPCAddr: v.GetString("status.grpc_addr"),
	}
	if cfg.MQTT.Broker.ClientID == "" {
		cfg.MQTT.Broker.ClientID = "sensor-simulator-" + uuid.NewString()[:8]
	}
	if cfg.Endpoint == "" {
		return Config{}, errors.New("endpoint must not be empty")
	}
	if cfg.HTTPTimeout <= 0 {
		return Config{}, fmt.Errorf("http.timeout must be positive, got %s", cfg.HTTPTimeout)
	}
	return cfg, nil
}
