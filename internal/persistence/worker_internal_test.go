package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// ============================================================================
// Fakes
// ============================================================================

// flakyWriter fails the first `failures` WriteBatch calls, then succeeds.
type flakyWriter struct {
	mu       sync.Mutex
	failures int
	attempts int
	written  [][]OperationRow
}

func (f *flakyWriter) WriteBatch(_ context.Context, rows []OperationRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.attempts <= f.failures {
		return errors.New("connection refused")
	}
	batch := make([]OperationRow, len(rows))
	copy(batch, rows)
	f.written = append(f.written, batch)
	return nil
}

func (f *flakyWriter) snapshot() (int, [][]OperationRow) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts, f.written
}

// ============================================================================
// Flush retry
// ============================================================================

func TestWorker_RetriesFailedFlushUntilWritten(t *testing.T) {
	fw := &flakyWriter{failures: 2}
	input := make(chan OperationRow, 4)
	w := &Worker{
		writer:       fw,
		inputChan:    input,
		batchSize:    2,
		flushTimeout: time.Hour,
	}

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	input <- OperationRow{Sequence: 0, EventType: "Deposit"}
	input <- OperationRow{Sequence: 1, EventType: "Withdraw"}
	close(input)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not finish")
	}

	attempts, written := fw.snapshot()
	if attempts != 3 {
		t.Errorf("write attempts = %d, want 3", attempts)
	}
	if len(written) != 1 || len(written[0]) != 2 {
		t.Fatalf("written batches = %v, want one batch of 2 rows", written)
	}
	if written[0][0].Sequence != 0 || written[0][1].Sequence != 1 {
		t.Errorf("written sequences = %d,%d, want 0,1", written[0][0].Sequence, written[0][1].Sequence)
	}
}

func TestWorker_ShutdownDuringRetryStillWritesBatch(t *testing.T) {
	fw := &flakyWriter{failures: 1}
	input := make(chan OperationRow, 4)
	w := &Worker{
		writer:       fw,
		inputChan:    input,
		batchSize:    1,
		flushTimeout: time.Hour,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	input <- OperationRow{Sequence: 7, EventType: "Deposit"}

	// Wait for the first failing attempt, then cancel mid-retry.
	deadline := time.Now().Add(2 * time.Second)
	for {
		attempts, _ := fw.snapshot()
		if attempts >= 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("worker never attempted a flush")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not shut down")
	}

	_, written := fw.snapshot()
	if len(written) != 1 || len(written[0]) != 1 {
		t.Fatalf("written batches = %v, want one batch of 1 row", written)
	}
	if written[0][0].Sequence != 7 {
		t.Errorf("written sequence = %d, want 7", written[0][0].Sequence)
	}
}
