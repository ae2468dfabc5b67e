package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// Queue is a Dispatcher that holds functions until the test runs them,
// making the UI thread explicit in tests
type Queue struct {
	fns chan func()
}

// NewQueue creates an empty queue
func NewQueue() *Queue {
	return &Queue{fns: make(chan func(), 64)}
}

// Do queues fn
func (q *Queue) Do(fn func()) {
	q.fns <- fn
}

// RunNext runs the next queued function, waiting up to two seconds for
// background work to queue one
func (q *Queue) RunNext(t *testing.T) {
	t.Helper()

	select {
	case fn := <-q.fns:
		fn()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a dispatched function")
	}
}

// RunPending runs everything queued right now and returns the count
func (q *Queue) RunPending() int {
	n := 0
	for {
		select {
		case fn := <-q.fns:
			fn()
			n++
		default:
			return n
		}
	}
}

// AssertEmpty fails if a function gets queued within a short grace period
func (q *Queue) AssertEmpty(t *testing.T) {
	t.Helper()

	select {
	case <-q.fns:
		t.Fatal("unexpected dispatched function")
	case <-time.After(20 * time.Millisecond):
	}
}

// CreateTestFile creates a test file with content
func CreateTestFile(t *testing.T, path string, content []byte) {
	t.Helper()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create directory for test file: %v", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", path, err)
	}
}
