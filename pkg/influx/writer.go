package influx

import (
	"fmt"
	"strings"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"go.uber.org/zap"
)

type Config struct {
	URL         string
	Token       string
	Org         string
	Bucket      string
	Measurement string
}

// Open creates the client and an async writer for cfg.Bucket.
func Open(cfg Config, log *zap.Logger) (influxdb2.Client, *Writer, error) {
	if cfg.URL == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, nil, fmt.Errorf("influx config incomplete")
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	w := NewWriter(client.WriteAPI(cfg.Org, cfg.Bucket), cfg.Measurement, log)
	return client, w, nil
}

// Writer wraps the non-blocking WriteAPI and remembers the last write error.
type Writer struct {
	api         api.WriteAPI
	measurement string
	log         *zap.Logger

	mu      sync.RWMutex
	lastErr time.Time
	written int64
}

func NewWriter(w api.WriteAPI, measurement string, log *zap.Logger) *Writer {
	if measurement == "" {
		measurement = "sensor_reading"
	}
	ww := &Writer{
		api:         w,
		measurement: sanitizeMeasurement(measurement),
		log:         log,
		lastErr:     time.Now().Add(-24 * time.Hour),
	}
	go func() {
		for err := range w.Errors() {
			if err == nil {
				continue
			}
			ww.mu.Lock()
			ww.lastErr = time.Now()
			ww.mu.Unlock()
			log.Warn("influx write error", zap.Error(err))
		}
	}()
	return ww
}

// WritePoint queues one point; delivery errors surface asynchronously.
func (w *Writer) WritePoint(tags map[string]string, fields map[string]interface{}, t time.Time) {
	if t.IsZero() {
		t = time.Now()
	}
	w.api.WritePoint(influxdb2.NewPoint(w.measurement, tags, fields, t))
	w.mu.Lock()
	w.written++
	w.mu.Unlock()
}

func (w *Writer) Flush() { w.api.Flush() }

func (w *Writer) Measurement() string { return w.measurement }

// LastErrorAge is how long ago the last asynchronous write error happened.
func (w *Writer) LastErrorAge() time.Duration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return time.Since(w.lastErr)
}

func (w *Writer) Written() int64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.written
}

func sanitizeMeasurement(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '_', r == ':', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
