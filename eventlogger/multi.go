package eventlogger

import (
	"context"
	"errors"
)

type multiSink []Sink

// Multi saves every event to each sink in order. A failing sink doesn't stop
// the others; their errors are joined.
func Multi(sinks ...Sink) Sink {
	return multiSink(sinks)
}

func (m multiSink) Save(ctx context.Context, e Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Save(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
