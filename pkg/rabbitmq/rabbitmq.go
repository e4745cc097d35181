package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// RabbitMQConfig addresses the broker's MQTT plugin.
type RabbitMQConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	ClientID string

	MaxRetries     int
	MaxElapsedTime time.Duration
}

// ClientFactory builds an unconnected client; swapped in tests.
type ClientFactory func(opts *mqtt.ClientOptions) mqtt.Client

// NewRabbitMQConn connects with exponential backoff and disconnects when ctx ends.
func NewRabbitMQConn(ctx context.Context, cfg *RabbitMQConfig, log *zap.Logger) (mqtt.Client, error) {
	return connect(ctx, cfg, log, mqtt.NewClient)
}

func connect(ctx context.Context, cfg *RabbitMQConfig, log *zap.Logger, factory ClientFactory) (mqtt.Client, error) {
	connAddr := fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(connAddr)
	opts.SetUsername(cfg.User)
	opts.SetPassword(cfg.Password)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = cfg.MaxElapsedTime
	if bo.MaxElapsedTime <= 0 {
		bo.MaxElapsedTime = 10 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 5
	}

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = factory(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			log.Warn("mqtt connect failed", zap.String("broker", connAddr), zap.Error(token.Error()))
			return token.Error()
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(maxRetries-1)), ctx))
	if err != nil {
		return nil, fmt.Errorf("could not establish MQTT connection after retries: %w", err)
	}

	log.Info("connected to mqtt broker", zap.String("broker", connAddr))

	go func() {
		<-ctx.Done()
		CloseRabbitMQConn(client, log)
	}()

	return client, nil
}

func CloseRabbitMQConn(client mqtt.Client, log *zap.Logger) {
	if client.IsConnected() {
		client.Disconnect(250)
		log.Info("mqtt connection closed")
	}
}
