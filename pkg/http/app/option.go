package app

import (
	"net/http"

	"google.golang.org/grpc"
)

// Option configures the environment run by Run().
type Option func(o *opts)

// Middleware wraps an http.Handler.
type Middleware func(next http.Handler) http.Handler

type opts struct {
	httpMiddleware           []Middleware
	unaryServerInterceptors  []grpc.UnaryServerInterceptor
	streamServerInterceptors []grpc.StreamServerInterceptor
}

// WithHTTPMiddleware configures the app's HTTP server to use the provided middleware.
//
// Middleware is evaluated in addition order, and runs after the app's default
// middleware.
func WithHTTPMiddleware(middleware Middleware) Option {
	return func(o *opts) {
		o.httpMiddleware = append(o.httpMiddleware, middleware)
	}
}

// WithUnaryServerInterceptor configures the app's gRPC health server to use the provided interceptor.
//
// Interceptors are evaluated in addition order, and configured interceptors are executed after
// the app's default interceptors.
func WithUnaryServerInterceptor(interceptor grpc.UnaryServerInterceptor) Option {
	return func(o *opts) {
		o.unaryServerInterceptors = append(o.unaryServerInterceptors, interceptor)
	}
}

// WithStreamServerInterceptor configures the app's gRPC health server to use the provided interceptor.
//
// Interceptors are evaluated in addition order, and configured interceptors are executed after
// the app's default interceptors.
func WithStreamServerInterceptor(interceptor grpc.StreamServerInterceptor) Option {
	return func(o *opts) {
		o.streamServerInterceptors = append(o.streamServerInterceptors, interceptor)
	}
}

// chain wraps handler so that middleware[0] is outermost
func chain(handler http.Handler, middleware ...Middleware) http.Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		handler = middleware[i](handler)
	}
	return handler
}
