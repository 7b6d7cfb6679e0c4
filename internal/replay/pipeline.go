package replay

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
	"gopkg.in/tomb.v2"

	"market-sim-lab/internal/domain"
)

// DefaultBuffer is the channel capacity between producer and consumer.
const DefaultBuffer = 64

// Pipeline runs the replay as two goroutines: a producer reading and
// transforming records and a consumer feeding the engines. The bounded
// channel between them provides backpressure. Record order is preserved.
type Pipeline struct {
	opts   Options
	buffer int
}

// NewPipeline creates a concurrent pipeline. buffer <= 0 uses DefaultBuffer.
func NewPipeline(opts Options, buffer int) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Pipeline{opts: opts, buffer: buffer}
}

// Run replays until the source is exhausted or either stage fails.
// The first error stops both goroutines and is returned.
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	if p.opts.Driver == nil {
		return stats, ErrNoDriver
	}

	t, tctx := tomb.WithContext(ctx)
	records := make(chan domain.Record, p.buffer)

	t.Go(func() error {
		defer close(records)
		for {
			rec, err := p.opts.Driver.Next(tctx)
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read record: %w", err)
			}

			rec, err = transform(p.opts.Scenarios, rec)
			if err != nil {
				return err
			}

			select {
			case records <- rec:
			case <-t.Dying():
				return nil
			}
		}
	})

	t.Go(func() error {
		for {
			select {
			case <-t.Dying():
				return nil
			case rec, ok := <-records:
				if !ok {
					if p.opts.Inbox != nil {
						stats.Commands += p.opts.Inbox.Drain()
					}
					return nil
				}
				if p.opts.Inbox != nil {
					stats.Commands += p.opts.Inbox.Drain()
				}
				if err := process(tctx, p.opts, rec); err != nil {
					return err
				}
				stats.observe(rec)
			}
		}
	})

	err := t.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return stats, err
	}

	p.opts.Logger.Info("pipeline finished",
		zap.Int("records", stats.Records),
		zap.Int("commands", stats.Commands),
	)
	return stats, nil
}
