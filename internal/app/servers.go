package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	healthcheck "github.com/vladislavdragonenkov/restful-oms/internal/health"
)

const readHeaderTimeout = 5 * time.Second

// newOpsHandler отдаёт метрики и пробы.
func newOpsHandler(healthHandler *healthcheck.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	return mux
}

// serveHTTP начинает слушать addr и обслуживать handler в отдельной горутине.
// Ошибка Serve уходит в errCh.
func serveHTTP(name, addr string, handler http.Handler, logger *log.Entry, errCh chan<- error) (*http.Server, net.Addr, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("listen %s on %s: %w", name, addr, err)
	}

	srv := &http.Server{Handler: handler, ReadHeaderTimeout: readHeaderTimeout}
	go func() {
		logger.WithField("addr", lis.Addr().String()).Infof("%s server started", name)
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errCh <- fmt.Errorf("%s server: %w", name, err):
			default:
			}
		}
	}()
	return srv, lis.Addr(), nil
}

// startMetricsServer поднимает /metrics, /healthz, /livez и /readyz.
func startMetricsServer(addr string, logger *log.Entry, healthHandler *healthcheck.Handler, errCh chan<- error) (*http.Server, net.Addr, error) {
	return serveHTTP("metrics", addr, newOpsHandler(healthHandler), logger, errCh)
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, timeout time.Duration, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}

// grpcHealth — gRPC-сервер только с health и reflection, для балансировщиков и grpcurl.
type grpcHealth struct {
	server *grpc.Server
	health *health.Server
	addr   net.Addr
}

func startGRPCHealthServer(addr string, logger *log.Entry, errCh chan<- error) (*grpcHealth, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen grpc on %s: %w", addr, err)
	}

	grpcMetrics := promgrpc.NewServerMetrics()
	if err := prometheus.Register(grpcMetrics); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*promgrpc.ServerMetrics); ok {
				grpcMetrics = existing
			}
		} else {
			logger.WithError(err).Warn("failed to register grpc metrics")
		}
	}

	server := grpc.NewServer(grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(server, healthServer)
	reflection.Register(server)
	grpcMetrics.InitializeMetrics(server)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	go func() {
		logger.WithField("addr", lis.Addr().String()).Info("grpc health server started")
		if err := server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			select {
			case errCh <- fmt.Errorf("grpc server: %w", err):
			default:
			}
		}
	}()

	return &grpcHealth{server: server, health: healthServer, addr: lis.Addr()}, nil
}

// stop переводит health в NOT_SERVING и ждёт завершения вызовов не дольше timeout.
func (g *grpcHealth) stop(timeout time.Duration, logger *log.Entry) {
	if g == nil {
		return
	}
	g.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		g.server.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(timeout):
		logger.Warn("grpc graceful stop timed out, forcing stop")
		g.server.Stop()
	}
}
