// Package workers provides the agent's background workers. It defines
// the Worker interface and a Workers aggregate that starts them in a
// unified way; the concrete worker here is the flush agent draining the
// durable emergency queue.
package workers

// Worker is the interface implemented by any background worker. Run
// starts the worker's execution; implementations are expected to block
// for the duration of their work or spawn goroutines internally.
type Worker interface {
	Run()
}
