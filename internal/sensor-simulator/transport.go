package sensor_simulator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/LeonardoBeccarini/sensor_simulator/internal/model"
	"github.com/LeonardoBeccarini/sensor_simulator/pkg/influx"
	"github.com/LeonardoBeccarini/sensor_simulator/pkg/rabbitmq"
	"github.com/LeonardoBeccarini/sensor_simulator/pkg/upstream"
)

// Transmitter delivers a reading. Failures are handled (logged) inside; nothing is returned.
type Transmitter interface {
	Transmit(ctx context.Context, r model.Reading)
}

// Fanout sends to every transmitter in order.
type Fanout []Transmitter

func (f Fanout) Transmit(ctx context.Context, r model.Reading) {
	for _, t := range f {
		t.Transmit(ctx, r)
	}
}

// Poster is the subset of *upstream.Upstream used by HTTPTransmitter.
type Poster interface {
	PostJSON(ctx context.Context, payload any) (upstream.Response, error)
}

// HTTPTransmitter posts readings to the device-data API. No retries.
type HTTPTransmitter struct {
	poster  Poster
	log     *zap.Logger
	metrics *Metrics
}

func NewHTTPTransmitter(p Poster, log *zap.Logger, m *Metrics) *HTTPTransmitter {
	return &HTTPTransmitter{poster: p, log: log, metrics: m}
}

func (t *HTTPTransmitter) Transmit(ctx context.Context, r model.Reading) {
	start := time.Now()
	t.log.Info("sending reading", zap.Int("device_id", r.DeviceID), zap.String("value", formatValue(r.Value)))

	resp, err := t.poster.PostJSON(ctx, r)
	switch {
	case errors.Is(err, upstream.ErrBreakerOpen):
		t.log.Warn("reading dropped, breaker open", zap.Int("device_id", r.DeviceID))
		t.metrics.observeTransmission("http", OutcomeDropped, start)
	case err != nil:
		t.log.Error("connection error", zap.Int("device_id", r.DeviceID), zap.Error(err))
		t.metrics.observeTransmission("http", OutcomeFailed, start)
	case resp.StatusCode == http.StatusOK:
		t.log.Info("reading accepted", zap.Int("status", resp.StatusCode), zap.String("body", resp.Body))
		t.metrics.observeTransmission("http", OutcomeSent, start)
	default:
		t.log.Warn("reading rejected", zap.Int("status", resp.StatusCode), zap.String("body", resp.Body))
		t.metrics.observeTransmission("http", OutcomeRejected, start)
	}
}

// PublisherFactory returns a publisher bound to topic.
type PublisherFactory func(topic string) rabbitmq.IPublisher

// MQTTMirror republishes each reading on <prefix>/<deviceId>.
type MQTTMirror struct {
	publishers map[int]rabbitmq.IPublisher
	log        *zap.Logger
	metrics    *Metrics
}

func NewMQTTMirror(factory PublisherFactory, prefix string, sensors []model.Sensor, log *zap.Logger, m *Metrics) *MQTTMirror {
	prefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	pubs := make(map[int]rabbitmq.IPublisher, len(sensors))
	for _, s := range sensors {
		pubs[s.ID] = factory(fmt.Sprintf("%s/%d", prefix, s.ID))
	}
	return &MQTTMirror{publishers: pubs, log: log, metrics: m}
}

func (m *MQTTMirror) Transmit(_ context.Context, r model.Reading) {
	start := time.Now()
	pub, ok := m.publishers[r.DeviceID]
	if !ok {
		m.log.Warn("no mqtt topic for device", zap.Int("device_id", r.DeviceID))
		m.metrics.observeTransmission("mqtt", OutcomeDropped, start)
		return
	}
	payload, err := json.Marshal(r)
	if err != nil {
		m.log.Error("mqtt encode failed", zap.Error(err))
		m.metrics.observeTransmission("mqtt", OutcomeFailed, start)
		return
	}
	if err := pub.PublishMessage(payload); err != nil {
		m.log.Warn("mqtt publish failed", zap.String("topic", pub.Topic()), zap.Error(err))
		m.metrics.observeTransmission("mqtt", OutcomeFailed, start)
		return
	}
	m.log.Debug("mqtt published", zap.String("topic", pub.Topic()))
	m.metrics.observeTransmission("mqtt", OutcomeSent, start)
}

// PointWriter is the subset of *influx.Writer used by InfluxMirror.
type PointWriter interface {
	WritePoint(tags map[string]string, fields map[string]interface{}, t time.Time)
}

var _ PointWriter = (*influx.Writer)(nil)

// InfluxMirror records each reading as a point.
type InfluxMirror struct {
	w       PointWriter
	metrics *Metrics
}

func NewInfluxMirror(w PointWriter, m *Metrics) *InfluxMirror {
	return &InfluxMirror{w: w, metrics: m}
}

func (m *InfluxMirror) Transmit(_ context.Context, r model.Reading) {
	start := time.Now()
	sensorType := "unknown"
	if s, ok := model.LookupSensor(r.DeviceID); ok {
		sensorType = s.Type
	}
	m.w.WritePoint(
		map[string]string{
			"device_id":   strconv.Itoa(r.DeviceID),
			"sensor_type": sensorType,
			"level":       string(r.Level),
		},
		map[string]interface{}{"value": r.Value},
		r.Timestamp,
	)
	m.metrics.observeTransmission("influx", OutcomeSent, start)
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
