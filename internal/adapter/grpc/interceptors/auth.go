package interceptors

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/seu-repo/agrovoz/internal/domain"
	"github.com/seu-repo/agrovoz/internal/ports"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	FarmIDKey   contextKey = "farm_id"
	UserRoleKey contextKey = "user_role"
)

// publicPrefixes lists services that need no token.
var publicPrefixes = []string{
	"/grpc.health.v1.Health/",
	"/grpc.reflection.",
}

// UnaryAuthInterceptor validates the bearer token in the "authorization"
// metadata and puts the caller's identity in the context.
func UnaryAuthInterceptor(auth ports.AuthService) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		for _, prefix := range publicPrefixes {
			if strings.HasPrefix(info.FullMethod, prefix) {
				return handler(ctx, req)
			}
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		authHeader := md.Get("authorization")
		if len(authHeader) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing authorization header")
		}

		tokenString := strings.TrimPrefix(authHeader[0], "Bearer ")
		user, err := auth.ValidateToken(ctx, tokenString)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}

		ctx = context.WithValue(ctx, UserIDKey, user.ID)
		ctx = context.WithValue(ctx, FarmIDKey, user.FarmID)
		ctx = context.WithValue(ctx, UserRoleKey, user.Role)

		return handler(ctx, req)
	}
}

// Identity returns the caller set by UnaryAuthInterceptor.
func Identity(ctx context.Context) (userID, farmID string, role domain.UserRole) {
	userID, _ = ctx.Value(UserIDKey).(string)
	farmID, _ = ctx.Value(FarmIDKey).(string)
	role, _ = ctx.Value(UserRoleKey).(domain.UserRole)
	return userID, farmID, role
}
