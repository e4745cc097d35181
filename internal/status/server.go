package status

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/LeonardoBeccarini/sensor_simulator/internal/model"
)

const ServiceName = "sensor-simulator"

func NewMux(src StateSource, mirrors Mirrors, gatherer prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/healthz", NewHealthHandler(src, mirrors))
	mux.Handle("/readyz", NewReadyHandler(src))
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux
}

// ServeHTTP runs the status server until ctx ends.
func ServeHTTP(ctx context.Context, addr string, h http.Handler, log *zap.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("status listen %s: %w", addr, err)
	}
	hs := &http.Server{Handler: h, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hs.Shutdown(shCtx)
	}()
	go func() {
		log.Info("status http listening", zap.String("addr", ln.Addr().String()))
		if err := hs.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("status http server error", zap.Error(err))
		}
	}()
	return nil
}

// GRPCHealth mirrors the run state into grpc.health.v1.
type GRPCHealth struct {
	srv *health.Server
}

func NewGRPCHealth() *GRPCHealth {
	h := &GRPCHealth{srv: health.NewServer()}
	h.SetRunning(false, "")
	return h
}

// SetRunning matches the controller's StateFunc signature.
func (h *GRPCHealth) SetRunning(running bool, _ model.Mode) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if running {
		st = healthpb.HealthCheckResponse_SERVING
	}
	h.srv.SetServingStatus(ServiceName, st)
}

func (h *GRPCHealth) Server() healthpb.HealthServer { return h.srv }

// ServeGRPC exposes the health service on addr until ctx ends.
func ServeGRPC(ctx context.Context, addr string, h *GRPCHealth, log *zap.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen %s: %w", addr, err)
	}
	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, h.srv)

	go func() {
		<-ctx.Done()
		h.srv.Shutdown()
		gs.GracefulStop()
	}()
	go func() {
		log.Info("status grpc listening", zap.String("addr", ln.Addr().String()))
		if err := gs.Serve(ln); err != nil {
			log.Error("grpc serve error", zap.Error(err))
		}
	}()
	return nil
}
