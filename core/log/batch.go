package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/sirupsen/logrus"
)

// Store is the durable backing store a BatchWriter hands finished,
// possibly-compressed batches to.
type Store interface {
	WriteBatch(data []byte) error
}

// Options configures a BatchWriter (spec §4.7 "Batching", "Compression").
type Options struct {
	MaxBatchSize     int
	FlushInterval    time.Duration
	Compress         bool
	CompressionLevel int // 0-9, gzip.DefaultCompression used if out of range
}

// BatchWriter buffers entries and flushes them to Store in batches,
// either because max_batch_size or flush_interval_ms was exceeded, or
// because the caller invoked Flush explicitly (spec §4.7 "Batching").
type BatchWriter struct {
	mu        sync.Mutex
	opts      Options
	store     Store
	index     *Index
	buffer    []Entry
	lastFlush time.Time
	nextPos   int
	log       *logrus.Entry
	metrics   *Metrics
}

// WithMetrics attaches a Metrics instance that future flushes report to.
func (w *BatchWriter) WithMetrics(m *Metrics) *BatchWriter {
	w.metrics = m
	return w
}

// NewBatchWriter constructs a BatchWriter over store, indexing flushed
// entries into index.
func NewBatchWriter(store Store, index *Index, opts Options) *BatchWriter {
	if opts.MaxBatchSize <= 0 {
		opts.MaxBatchSize = 100
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = time.Second
	}
	return &BatchWriter{
		opts:      opts,
		store:     store,
		index:     index,
		lastFlush: time.Now().UTC(),
		log:       logrus.WithField("component", "log.batch"),
	}
}

// Append buffers entry, assigning it a content ID if it doesn't have
// one, and flushes synchronously if the batch is now full.
func (w *BatchWriter) Append(entry Entry) error {
	w.mu.Lock()
	if entry.ID.IsZero() {
		id, err := entry.DeriveID()
		if err != nil {
			w.mu.Unlock()
			return fmt.Errorf("log: deriving entry id: %w", err)
		}
		entry.ID = id
	}
	w.buffer = append(w.buffer, entry)
	full := len(w.buffer) >= w.opts.MaxBatchSize
	w.mu.Unlock()

	if full {
		return w.Flush()
	}
	return nil
}

// ShouldFlush reports whether the flush interval has elapsed since the
// last flush, for the background flusher to poll.
func (w *BatchWriter) ShouldFlush(now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.buffer) > 0 && now.Sub(w.lastFlush) >= w.opts.FlushInterval
}

// Flush serializes and writes the current buffer to Store, indexing
// every entry on success. On a storage error the buffer is left intact
// so the caller may retry (spec §4.7 "Failure semantics").
func (w *BatchWriter) Flush() error {
	w.mu.Lock()
	if len(w.buffer) == 0 {
		w.mu.Unlock()
		return nil
	}
	batch := w.buffer
	w.mu.Unlock()

	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("log: marshaling batch: %w", err)
	}
	if w.opts.Compress {
		data, err = compress(data, w.opts.CompressionLevel)
		if err != nil {
			return fmt.Errorf("log: compressing batch: %w", err)
		}
	}

	if err := w.store.WriteBatch(data); err != nil {
		w.log.WithError(err).Error("batch flush failed; buffer retained for retry")
		w.metrics.observeFlush(err, len(w.buffer))
		return &Error{Op: "flush", Message: err.Error()}
	}

	w.mu.Lock()
	for _, e := range batch {
		w.index.Add(e, w.nextPos)
		w.nextPos++
	}
	w.buffer = w.buffer[len(batch):]
	w.lastFlush = time.Now().UTC()
	remaining := len(w.buffer)
	w.mu.Unlock()

	w.metrics.observeFlush(nil, remaining)
	return nil
}

func compress(data []byte, level int) ([]byte, error) {
	if level < gzip.NoCompression || level > gzip.BestCompression {
		level = gzip.DefaultCompression
	}
	var buf bytes.Buffer
	gw, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := gw.Write(data); err != nil {
		gw.Close()
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress reverses compress, symmetric with the Compress option
// (spec §4.7 "Decompression is symmetric").
func Decompress(data []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gr.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(gr); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
