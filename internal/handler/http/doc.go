// Package http implements the HTTP side of the development sync server.
//
// It exposes the sync round trip on both the primary and the direct path,
// the per-table operation endpoints replayed by client retry queues, and a
// health probe. Cross-cutting concerns such as authentication, request
// tracing, access logging, response compression, and payload integrity
// checks are handled in this package before requests reach the service
// layer.
package http
