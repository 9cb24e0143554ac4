// Package server runs the transports of the development sync endpoint.
//
// [NewServer] binds the HTTP and gRPC listeners up front so a bad address
// fails at startup. [Server.Run] serves both until its context is done and
// then drains them within a fixed timeout.
package server
