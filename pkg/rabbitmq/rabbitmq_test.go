package rabbitmq

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type published struct {
	topic   string
	payload []byte
}

// fakeClient embeds the interface; only the methods used here are implemented.
type fakeClient struct {
	mqtt.Client

	mu         sync.Mutex
	connectErr error
	connected  bool
	published  []published
	publishErr error
}

func (c *fakeClient) Connect() mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = c.connectErr == nil
	return &fakeToken{err: c.connectErr}
}

func (c *fakeClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *fakeClient) Disconnect(uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
}

func (c *fakeClient) Publish(topic string, _ byte, _ bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, published{topic: topic, payload: payload.([]byte)})
	return &fakeToken{err: c.publishErr}
}

func TestPublisher(t *testing.T) {
	c := &fakeClient{}
	p := NewPublisher(c, "sensors/readings/6")

	require.NoError(t, p.PublishMessage([]byte(`{"deviceId":6}`)))
	require.Len(t, c.published, 1)
	assert.Equal(t, "sensors/readings/6", c.published[0].topic)
	assert.Equal(t, `{"deviceId":6}`, string(c.published[0].payload))

	c.publishErr = errors.New("broker gone")
	assert.Error(t, p.PublishMessage([]byte(`{}`)))
}

func TestConnectRetriesThenSucceeds(t *testing.T) {
	attempts := 0
	factory := func(*mqtt.ClientOptions) mqtt.Client {
		attempts++
		if attempts < 3 {
			return &fakeClient{connectErr: errors.New("refused")}
		}
		return &fakeClient{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := &RabbitMQConfig{Host: "localhost", Port: 1883, ClientID: "sim", MaxRetries: 5, MaxElapsedTime: 5 * time.Second}
	client, err := connect(ctx, cfg, zap.NewNop(), factory)
	require.NoError(t, err)
	assert.True(t, client.IsConnected())
	assert.Equal(t, 3, attempts)

	cancel()
	assert.Eventually(t, func() bool { return !client.IsConnected() }, time.Second, 10*time.Millisecond)
}

func TestConnectGivesUp(t *testing.T) {
	attempts := 0
	factory := func(*mqtt.ClientOptions) mqtt.Client {
		attempts++
		return &fakeClient{connectErr: errors.New("refused")}
	}
	cfg := &RabbitMQConfig{Host: "localhost", Port: 1883, MaxRetries: 2, MaxElapsedTime: 5 * time.Second}
	_, err := connect(context.Background(), cfg, zap.NewNop(), factory)
	assert.Error(t, err)
	assert.Equal(t, 2, attempts)
}
