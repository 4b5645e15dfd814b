package log

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Flusher runs a BatchWriter's time-driven flush on a ticker and
// guarantees a final flush on shutdown, bounded by the caller's context
// deadline (restored from the Rust original's BackgroundFlusherConfig;
// spec §4.7 SUPPLEMENTED FEATURES).
type Flusher struct {
	writer *BatchWriter
	period time.Duration
	log    *logrus.Entry

	stop    chan struct{}
	done    chan struct{}
}

// NewFlusher constructs a Flusher that polls writer every period.
func NewFlusher(writer *BatchWriter, period time.Duration) *Flusher {
	if period <= 0 {
		period = time.Second
	}
	return &Flusher{
		writer: writer,
		period: period,
		log:    logrus.WithField("component", "log.flusher"),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the background flush loop. Flush errors are logged and
// do not terminate the process (spec §4.7 "Background-flush errors are
// logged and do not terminate the process").
func (f *Flusher) Start() {
	go func() {
		defer close(f.done)
		ticker := time.NewTicker(f.period)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				now := time.Now().UTC()
				if f.writer.ShouldFlush(now) {
					if err := f.writer.Flush(); err != nil {
						f.log.WithError(err).Warn("background flush failed")
					}
				}
			case <-f.stop:
				if err := f.writer.Flush(); err != nil {
					f.log.WithError(err).Warn("final flush on shutdown failed")
				}
				return
			}
		}
	}()
}

// Stop signals shutdown and waits for the final flush, bounded by ctx's
// deadline. Returns ctx.Err() if the deadline elapses first.
func (f *Flusher) Stop(ctx context.Context) error {
	close(f.stop)
	select {
	case <-f.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
