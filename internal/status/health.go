package status

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/LeonardoBeccarini/sensor_simulator/internal/model"
)

// recentWriteError is how long a mirror write error keeps /healthz degraded.
const recentWriteError = 30 * time.Second

// StateSource is the read side of the simulation controller.
type StateSource interface {
	Running() bool
	Mode() model.Mode
	ActiveLoops() int
}

// ConnChecker is satisfied by mqtt.Client.
type ConnChecker interface {
	IsConnectionOpen() bool
}

// WriteErrorAger is satisfied by *influx.Writer.
type WriteErrorAger interface {
	LastErrorAge() time.Duration
}

// Mirrors holds the enabled mirror sinks; nil fields are not reported.
type Mirrors struct {
	MQTT   ConnChecker
	Influx WriteErrorAger
}

type healthHandler struct {
	src     StateSource
	mirrors Mirrors
}

func NewHealthHandler(src StateSource, mirrors Mirrors) http.Handler {
	return &healthHandler{src: src, mirrors: mirrors}
}

func (h *healthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	type status struct {
		Status          string   `json:"status"`
		Running         bool     `json:"running"`
		Mode            string   `json:"mode"`
		ActiveLoops     int      `json:"active_loops"`
		MQTTConnected   *bool    `json:"mqtt_connected,omitempty"`
		LastWriteErrorS *float64 `json:"last_write_error_age_sec,omitempty"`
	}
	st := status{
		Status:      "ok",
		Running:     h.src.Running(),
		Mode:        string(h.src.Mode()),
		ActiveLoops: h.src.ActiveLoops(),
	}
	if st.Running && st.ActiveLoops == 0 {
		st.Status = "degraded"
	}
	if h.mirrors.MQTT != nil {
		connected := h.mirrors.MQTT.IsConnectionOpen()
		st.MQTTConnected = &connected
		if !connected {
			st.Status = "degraded"
		}
	}
	if h.mirrors.Influx != nil {
		age := h.mirrors.Influx.LastErrorAge()
		secs := age.Seconds()
		st.LastWriteErrorS = &secs
		if age < recentWriteError {
			st.Status = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(st)
}

// Handler /readyz: 200 only while a run is active.
type readyHandler struct {
	src StateSource
}

func NewReadyHandler(src StateSource) http.Handler {
	return &readyHandler{src: src}
}

func (h *readyHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	ready := h.src.Running() && h.src.ActiveLoops() > 0
	w.Header().Set("Content-Type", "application/json")
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	type resp struct {
		Ready bool `json:"ready"`
	}
	_ = json.NewEncoder(w).Encode(resp{Ready: ready})
}
