package log

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/timewave-computer/causality-sub001/core/content"
)

type memStore struct {
	batches [][]byte
	failNext bool
}

func (m *memStore) WriteBatch(data []byte) error {
	if m.failNext {
		m.failNext = false
		return errors.New("simulated backend outage")
	}
	m.batches = append(m.batches, data)
	return nil
}

func TestAppendTriggersFlushAtMaxBatchSize(t *testing.T) {
	store := &memStore{}
	idx := NewIndex()
	w := NewBatchWriter(store, idx, Options{MaxBatchSize: 2})

	if err := w.Append(Entry{Timestamp: time.Now().UTC(), Type: EntryFact, Data: []byte("a")}); err != nil {
		t.Fatalf("append 1: %v", err)
	}
	if len(store.batches) != 0 {
		t.Fatalf("expected no flush yet")
	}
	if err := w.Append(Entry{Timestamp: time.Now().UTC(), Type: EntryFact, Data: []byte("b")}); err != nil {
		t.Fatalf("append 2: %v", err)
	}
	if len(store.batches) != 1 {
		t.Fatalf("expected exactly one flushed batch, got %d", len(store.batches))
	}
}

func TestFlushFailureRetainsBuffer(t *testing.T) {
	store := &memStore{failNext: true}
	idx := NewIndex()
	w := NewBatchWriter(store, idx, Options{MaxBatchSize: 1})

	err := w.Append(Entry{Timestamp: time.Now().UTC(), Type: EntryFact, Data: []byte("a")})
	if err == nil {
		t.Fatalf("expected flush error")
	}
	if len(w.buffer) != 1 {
		t.Fatalf("expected buffer to retain the unflushed entry, got %d", len(w.buffer))
	}

	if err := w.Flush(); err != nil {
		t.Fatalf("retry flush: %v", err)
	}
	if len(store.batches) != 1 {
		t.Fatalf("expected retry to succeed")
	}
}

func TestCompressionRoundTrip(t *testing.T) {
	store := &memStore{}
	idx := NewIndex()
	w := NewBatchWriter(store, idx, Options{MaxBatchSize: 1, Compress: true, CompressionLevel: 6})

	if err := w.Append(Entry{Timestamp: time.Now().UTC(), Type: EntryEvent, Data: []byte("payload")}); err != nil {
		t.Fatalf("append: %v", err)
	}
	raw, err := Decompress(store.batches[0])
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if len(raw) == 0 {
		t.Fatalf("expected decompressed payload")
	}
}

func TestIndexLookupsAfterFlush(t *testing.T) {
	store := &memStore{}
	idx := NewIndex()
	w := NewBatchWriter(store, idx, Options{MaxBatchSize: 1})

	e := Entry{Timestamp: time.Now().UTC(), Type: EntryEffect, Data: []byte("x"), Domains: nil}
	if err := w.Append(e); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, ok := idx.Position(mustEntryID(t, e)); !ok {
		t.Fatalf("expected entry to be indexed by hash after flush")
	}
	if len(idx.ByType(EntryEffect)) != 1 {
		t.Fatalf("expected 1 position under EntryEffect")
	}
}

func mustEntryID(t *testing.T, e Entry) content.ID {
	t.Helper()
	gotID, err := e.DeriveID()
	if err != nil {
		t.Fatalf("derive id: %v", err)
	}
	return gotID
}

func TestFlusherStopPerformsFinalFlush(t *testing.T) {
	store := &memStore{}
	idx := NewIndex()
	w := NewBatchWriter(store, idx, Options{MaxBatchSize: 1000, FlushInterval: time.Hour})
	_ = w.Append(Entry{Timestamp: time.Now().UTC(), Type: EntryFact, Data: []byte("a")})

	f := NewFlusher(w, time.Hour)
	f.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := f.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if len(store.batches) != 1 {
		t.Fatalf("expected final flush to have written the buffered entry")
	}
}
