// Package grpc provides gRPC server interceptors that authenticate calls with
// Entra ID bearer tokens.
//
// The unary and stream interceptors read the token from the "authorization"
// metadata entry, check it with core.Core and put the validator.ClaimSet in
// the handler's context.
//
// # Basic Usage
//
//	cache, err := jwks.NewCache(jwks.WithJWKSURI(jwksURL))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	v, err := validator.New(validator.Config{ClientID: clientID, TenantID: tenantID}, cache)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	interceptor, err := jwtgrpc.New(
//	    jwtgrpc.WithValidator(v),
//	    jwtgrpc.WithExcludedMethods("/grpc.health.v1.Health/Check"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	server := grpc.NewServer(
//	    grpc.UnaryInterceptor(interceptor.UnaryServerInterceptor()),
//	    grpc.StreamInterceptor(interceptor.StreamServerInterceptor()),
//	)
//
// # Status Codes
//
// DefaultErrorHandler answers Unauthenticated for a missing or rejected
// token and Internal when the validator has no client or tenant id.
//
// # Claims Retrieval
//
//	func (s *server) GetUser(ctx context.Context, req *pb.GetUserRequest) (*pb.User, error) {
//	    claims, err := jwtgrpc.Claims(ctx)
//	    if err != nil {
//	        return nil, status.Error(codes.Internal, "failed to get claims")
//	    }
//	    return &pb.User{Id: claims.Subject()}, nil
//	}
package grpc
