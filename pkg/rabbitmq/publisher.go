package rabbitmq

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const publishTimeout = 5 * time.Second

// IPublisher publishes raw payloads on a fixed topic.
type IPublisher interface {
	PublishMessage(payload []byte) error
	Topic() string
}

// Publisher is bound to one topic on a shared client.
type Publisher struct {
	client mqtt.Client
	topic  string
}

func NewPublisher(client mqtt.Client, topic string) *Publisher {
	return &Publisher{client: client, topic: topic}
}

func (p *Publisher) Topic() string { return p.topic }

// PublishMessage sends at QoS 0 and waits for the token.
func (p *Publisher) PublishMessage(payload []byte) error {
	token := p.client.Publish(p.topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s timed out", p.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}
