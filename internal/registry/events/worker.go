package events

import "context"

// Worker drains a subscriber channel into a downstream sink. It keeps
// background delivery testable without wiring broker implementations into
// the service.
type Worker struct {
	sink  Sink
	inbox <-chan Event
}

func NewWorker(sink Sink, inbox <-chan Event) *Worker {
	return &Worker{sink: sink, inbox: inbox}
}

// Run forwards events until the context is cancelled or the inbox closes.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			if err := w.sink.Emit(ctx, event); err != nil {
				return err
			}
		}
	}
}
