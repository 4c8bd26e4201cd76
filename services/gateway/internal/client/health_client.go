package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// CatalogService is the gRPC health service name the catalog reports.
const CatalogService = "learnhub.catalog"

type HealthClient struct {
	conn   *grpc.ClientConn
	Client healthpb.HealthClient
}

func NewHealthClient(url string, opts ...grpc.DialOption) (*HealthClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	cc, err := grpc.NewClient(url, opts...)
	if err != nil {
		return nil, err
	}
	return &HealthClient{
		conn:   cc,
		Client: healthpb.NewHealthClient(cc),
	}, nil
}

// Check returns nil when the catalog reports SERVING.
func (h *HealthClient) Check(ctx context.Context) error {
	res, err := h.Client.Check(ctx, &healthpb.HealthCheckRequest{Service: CatalogService})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if res.Status != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%w: catalog is %s", ErrUpstream, res.Status)
	}
	return nil
}

func (h *HealthClient) Close() error {
	return h.conn.Close()
}
