package interceptors

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/seu-repo/agrovoz/internal/observability/telemetry"
)

// UnaryMetricsInterceptor counts requests by method and status code.
func UnaryMetricsInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)

		st, _ := status.FromError(err)
		telemetry.GRPCRequestsTotal.WithLabelValues(info.FullMethod, st.Code().String()).Inc()

		return resp, err
	}
}
