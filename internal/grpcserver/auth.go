package grpcserver

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"seriesjp/internal/auth"
)

type claimsKey struct{}

// AuthInterceptor requires a bearer token in the "authorization" metadata for
// every LibraryService call. Catalog calls pass through.
func AuthInterceptor(tokens auth.TokenService, repo *auth.Repo) grpc.UnaryServerInterceptor {
	prefix := "/" + LibraryServiceName + "/"
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !strings.HasPrefix(info.FullMethod, prefix) {
			return handler(ctx, req)
		}

		md, _ := metadata.FromIncomingContext(ctx)
		var raw string
		if vals := md.Get("authorization"); len(vals) > 0 {
			raw = auth.BearerToken(vals[0])
		}
		if raw == "" {
			return nil, status.Error(codes.Unauthenticated, "missing bearer token")
		}

		claims, err := auth.Authenticate(ctx, tokens, repo, raw)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}
		return handler(context.WithValue(ctx, claimsKey{}, claims), req)
	}
}

func claimsFrom(ctx context.Context) (*auth.Claims, error) {
	claims, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	if !ok || claims == nil {
		return nil, status.Error(codes.Unauthenticated, "unauthenticated")
	}
	return claims, nil
}
