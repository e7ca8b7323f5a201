package caseloader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

type testExtractor struct {
	source io.Reader
	err    error
}

func (e *testExtractor) extract(_ context.Context, _ string) (io.Reader, func(), error) {
	if e.err != nil {
		return nil, nil, e.err
	}

	return e.source, func() {}, nil
}

type testStore struct {
	mu     sync.Mutex
	tables []string
	sizes  []int
	result [][]Record
	failOn map[int]bool
	closed bool
}

func (s *testStore) Insert(_ context.Context, table string, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	call := len(s.sizes) + 1
	s.tables = append(s.tables, table)
	s.sizes = append(s.sizes, len(records))
	s.result = append(s.result, records)

	if s.failOn[call] {
		return fmt.Errorf("insert %d rejected", call)
	}

	return nil
}

func (s *testStore) Close() error {
	s.closed = true
	return nil
}

type testSleeper struct {
	calls []time.Duration
}

func (s *testSleeper) sleep(_ context.Context, d time.Duration) {
	s.calls = append(s.calls, d)
}

func newTestLoader(t *testing.T, body string, store Store, opts ...Option) (*Loader, *testSleeper) {
	t.Helper()

	cfg := DefaultConfig()
	cfg.SourceFile = "test/cases.csv"

	opts = append([]Option{WithStore(store), WithLogWriter(io.Discard)}, opts...)

	l, err := New(context.Background(), cfg, opts...)
	if err != nil {
		t.Fatalf("failed to build loader: %v", err)
	}

	ts := &testSleeper{}
	l.extractor = &testExtractor{source: bytes.NewBufferString(body)}
	l.sleep = ts.sleep

	return l, ts
}

// buildCSV returns a header plus n rows whose id column counts from 1.
func buildCSV(n int) string {
	b := &strings.Builder{}
	b.WriteString("ID,SOC_CODE,created_timestamp\n")

	for i := 1; i <= n; i++ {
		fmt.Fprintf(b, "%d,29-1141,05JAN24:14:30:00\n", i)
	}

	return b.String()
}

func value(t *testing.T, r Record, column string) string {
	t.Helper()

	v, ok := r[column]
	if !ok {
		t.Fatalf("column %s not found in %v", column, r)
	}
	if v == nil {
		return "<nil>"
	}

	return *v
}
