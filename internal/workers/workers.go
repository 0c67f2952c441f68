package workers

// Workers aggregates background workers and runs them in registration
// order.
type Workers struct {
	workers []Worker
}

// NewWorkers collects the given workers into an aggregate.
func NewWorkers(ws ...Worker) *Workers {
	return &Workers{workers: ws}
}

func (w *Workers) Run() {
	for _, worker := range w.workers {
		worker.Run()
	}
}
