package table

import (
	"log/slog"
	"time"
)

// Processor runs the table transforms and reports what it did through
// its logger. The zero value is not usable; create one with NewProcessor.
type Processor struct {
	log *slog.Logger
	now func() time.Time
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithClock sets the clock used by AddProcessingTimestamp.
func WithClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

// NewProcessor creates a Processor logging to log. A nil logger discards
// records.
func NewProcessor(log *slog.Logger, opts ...ProcessorOption) *Processor {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	p := &Processor{
		log: log,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}
