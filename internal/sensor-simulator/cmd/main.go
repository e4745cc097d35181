package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sony/gobreaker"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/LeonardoBeccarini/sensor_simulator/internal/logger"
	"github.com/LeonardoBeccarini/sensor_simulator/internal/model"
	sensorSimulator "github.com/LeonardoBeccarini/sensor_simulator/internal/sensor-simulator"
	"github.com/LeonardoBeccarini/sensor_simulator/internal/status"
	"github.com/LeonardoBeccarini/sensor_simulator/pkg/influx"
	"github.com/LeonardoBeccarini/sensor_simulator/pkg/rabbitmq"
	"github.com/LeonardoBeccarini/sensor_simulator/pkg/upstream"
)

func main() {
	// a missing .env is fine
	_ = godotenv.Load()

	cfg, err := loadConfig(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("sensor simulator failed", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(cfg Config, log *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := sensorSimulator.NewMetrics(reg)

	var opts []upstream.Option
	if cfg.Breaker.Enabled {
		opts = append(opts, upstream.WithBreaker(cfg.Breaker.Failures, cfg.Breaker.OpenFor,
			func(name string, from, to gobreaker.State) {
				log.Warn("breaker state changed", zap.String("upstream", name), zap.Stringer("from", from), zap.Stringer("to", to))
			}))
	}
	api := upstream.New("device-data", cfg.Endpoint, cfg.HTTPTimeout, opts...)
	sinks := sensorSimulator.Fanout{sensorSimulator.NewHTTPTransmitter(api, log.Named("api"), metrics)}
	var mirrors status.Mirrors

	if cfg.MQTT.Enabled {
		client, err := rabbitmq.NewRabbitMQConn(ctx, &cfg.MQTT.Broker, log.Named("mqtt"))
		if err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
		defer rabbitmq.CloseRabbitMQConn(client, log.Named("mqtt"))
		mirrors.MQTT = client
		factory := func(topic string) rabbitmq.IPublisher { return rabbitmq.NewPublisher(client, topic) }
		sinks = append(sinks, sensorSimulator.NewMQTTMirror(factory, cfg.MQTT.TopicPrefix, model.Sensors(), log.Named("mqtt"), metrics))
	}

	if cfg.Influx.Enabled {
		client, writer, err := influx.Open(cfg.Influx.Config, log.Named("influx"))
		if err != nil {
			return fmt.Errorf("influx: %w", err)
		}
		defer client.Close()
		defer func() {
			writer.Flush()
			log.Info("influx mirror flushed", zap.Int64("points", writer.Written()))
		}()
		sinks = append(sinks, sensorSimulator.NewInfluxMirror(writer, metrics))
		mirrors.Influx = writer
	}

	ctrl := sensorSimulator.NewController(sensorSimulator.Config{
		Sensors:     model.Sensors(),
		Generator:   sensorSimulator.NewGenerator(cfg.Seed),
		Transmitter: sinks,
		Metrics:     metrics,
		Logger:      log.Named("simulator"),
		StopGrace:   cfg.StopGrace,
		ErrorPause:  cfg.ErrorPause,
	})

	if cfg.StatusHTTPAddr != "" {
		if err := status.ServeHTTP(ctx, cfg.StatusHTTPAddr, status.NewMux(ctrl, mirrors, reg), log.Named("status")); err != nil {
			return err
		}
	}
	if cfg.StatusGRPCAddr != "" {
		gh := status.NewGRPCHealth()
		ctrl.OnStateChange(gh.SetRunning)
		if err := status.ServeGRPC(ctx, cfg.StatusGRPCAddr, gh, log.Named("status")); err != nil {
			return err
		}
	}

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupts)

	log.Info("sensor simulator ready", zap.String("endpoint", api.URL()), zap.String("breaker", api.BreakerState()), zap.Int("sensors", len(ctrl.Sensors())))

	if cfg.Mode != "" {
		mode, err := model.ParseMode(cfg.Mode)
		if err != nil {
			return err
		}
		if err := ctrl.Start(mode); err != nil {
			return err
		}
		<-interrupts
		ctrl.Stop()
		return nil
	}

	return sensorSimulator.NewShell(os.Stdin, os.Stdout, ctrl, interrupts, cfg.Endpoint, ctrl.Sensors()).Run(ctx)
}
