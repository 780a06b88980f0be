package server

import (
	"context"
	"errors"
	"net"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var _ = Describe("NewGRPCServer", func() {
	serve := func(check func(context.Context) error) healthpb.HealthClient {
		ctx, cancel := context.WithCancel(context.Background())
		DeferCleanup(cancel)

		gs := NewGRPCServer(ctx, check, time.Hour, nil)
		lis, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		go func() { _ = gs.Serve(lis) }()
		DeferCleanup(gs.Stop)

		conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(conn.Close)
		return healthpb.NewHealthClient(conn)
	}

	It("reports serving when the check passes", func() {
		client := serve(func(context.Context) error { return nil })
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.GetStatus()).To(Equal(healthpb.HealthCheckResponse_SERVING))
	})

	It("reports not serving when the check fails", func() {
		client := serve(func(context.Context) error { return errors.New("db down") })
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.GetStatus()).To(Equal(healthpb.HealthCheckResponse_NOT_SERVING))
	})
})
