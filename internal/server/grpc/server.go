// Package grpc exposes the travelbuddy services over gRPC.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/travelbuddy/internal/common"
	"github.com/dmitrijs2005/travelbuddy/internal/logging"
	"github.com/dmitrijs2005/travelbuddy/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ShutdownTimeout bounds a graceful stop. Open WatchFlow streams never end
// on their own, so the server is stopped hard after it.
const ShutdownTimeout = 5 * time.Second

type GRPCServer struct {
	address  string
	users    userSvc
	profiles profileSvc
	images   imageSvc
	verifier verificationSvc
	flows    flowWatcher
	health   *health.Server
	logger   logging.Logger
	now      func() time.Time
}

func NewGRPCServer(a string, l logging.Logger, us userSvc, ps profileSvc, is imageSvc, vs verificationSvc, fw flowWatcher) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		users:    us,
		profiles: ps,
		images:   is,
		verifier: vs,
		flows:    fw,
		health:   health.NewServer(),
		now:      time.Now,
	}
}

// Run serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()

		stopped := make(chan struct{})
		go func() {
			srv.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(ShutdownTimeout):
			srv.Stop()
		}
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	return srv.Serve(listen)
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor),
		grpc.ChainStreamInterceptor(s.streamAccessTokenInterceptor),
	)

	rpc.RegisterTravelBuddyServer(srv, s)
	healthpb.RegisterHealthServer(srv, s.health)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(rpc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(common.ServiceName, healthpb.HealthCheckResponse_SERVING)

	return srv
}
