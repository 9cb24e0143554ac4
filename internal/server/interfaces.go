package server

import "context"

// Server runs the transports of the development sync endpoint.
type Server interface {
	// Run serves every configured transport until ctx is done or one of them
	// fails, then shuts all of them down.
	Run(ctx context.Context) error

	// Addrs returns the bound listener address of each transport, keyed by
	// "http" and "grpc".
	Addrs() map[string]string
}
