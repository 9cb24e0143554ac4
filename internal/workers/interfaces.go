// Package workers runs the background loops of the client engine as one
// unit. It defines the Worker interface and a Workers aggregate that starts
// and stops several workers together.
package workers

import "context"

// Worker is a background loop that runs until Stop is called or the context
// passed to Start is cancelled.
//
// Start must not block. Stop blocks until the worker's goroutines have
// exited and must be safe to call on a worker that was never started.
//
// Example implementation:
//
//	type probe struct{ cancel context.CancelFunc; done chan struct{} }
//
//	func (p *probe) Start(ctx context.Context) { ... go p.loop(ctx) }
//	func (p *probe) Stop()                     { p.cancel(); <-p.done }
type Worker interface {
	Start(ctx context.Context)
	Stop()
}
