package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Domenick1991/flightbooking/api"
	"github.com/Domenick1991/flightbooking/config"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const healthProbeInterval = 10 * time.Second

type Servers struct {
	grpcServer *grpc.Server
	health     *health.Server
	httpServer *http.Server
	checker    api.HealthChecker
	log        logrus.FieldLogger
}

func NewServers(cfg *config.Config, svc api.Services, log logrus.FieldLogger) *Servers {
	grpcSrv := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)

	return &Servers{
		grpcServer: grpcSrv,
		health:     healthSrv,
		httpServer: &http.Server{
			Addr:              cfg.HTTP.Address,
			Handler:           api.NewRouter(svc, log),
			ReadHeaderTimeout: 5 * time.Second,
		},
		checker: svc.Health,
		log:     log,
	}
}

// Run starts the gRPC health server and the HTTP API and blocks until ctx is
// cancelled or a server fails.
func Run(ctx context.Context, cfg *config.Config, svc api.Services, log logrus.FieldLogger) error {
	s := NewServers(cfg, svc, log)

	lis, err := net.Listen("tcp", cfg.GRPC.Address)
	if err != nil {
		return fmt.Errorf("listen gRPC %s: %w", cfg.GRPC.Address, err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithField("addr", cfg.GRPC.Address).Info("gRPC health server starting")
		return s.grpcServer.Serve(lis)
	})

	g.Go(func() error {
		log.WithField("addr", cfg.HTTP.Address).Info("HTTP server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		s.watchHealth(ctx, healthProbeInterval)
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		log.Info("servers stopped")
		return nil
	})

	return g.Wait()
}

// watchHealth mirrors store reachability into the gRPC health service until
// ctx is done.
func (s *Servers) watchHealth(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		s.probe(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Servers) probe(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.checker.Ping(pingCtx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.log.WithError(err).Warn("store unreachable")
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
}
