package worker

import (
	"context"
	"errors"
	"testing"
	"time"
)

// squareJob returns n*n after an optional delay
type squareJob struct {
	n     int
	delay time.Duration
	err   error
}

type squareResult struct {
	value int
	err   error
}

func (r *squareResult) GetError() error {
	return r.err
}

func (j *squareJob) Execute(ctx context.Context) Result {
	if j.delay > 0 {
		time.Sleep(j.delay)
	}
	return &squareResult{value: j.n * j.n, err: j.err}
}

func TestBatchProcessor_Order(t *testing.T) {
	processor := NewBatchProcessor(4)

	var jobs []Job
	for i := 0; i < 100; i++ {
		// earlier jobs finish later
		jobs = append(jobs, &squareJob{n: i, delay: time.Duration(100-i) * 10 * time.Microsecond})
	}

	results := processor.Process(context.Background(), jobs)
	if len(results) != 100 {
		t.Fatalf("expected 100 results, got %d", len(results))
	}
	for i, r := range results {
		got := r.(*squareResult).value
		if got != i*i {
			t.Errorf("result %d: expected %d, got %d", i, i*i, got)
		}
	}
	if err := FirstError(context.Background(), results); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestBatchProcessor_ManyJobsFewWorkers(t *testing.T) {
	processor := NewBatchProcessor(1)

	var jobs []Job
	for i := 0; i < 1000; i++ {
		jobs = append(jobs, &squareJob{n: i})
	}

	done := make(chan []Result)
	go func() {
		done <- processor.Process(context.Background(), jobs)
	}()

	select {
	case results := <-done:
		if len(results) != 1000 {
			t.Errorf("expected 1000 results, got %d", len(results))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("batch did not complete")
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	results := NewBatchProcessor(2).Process(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestFirstError(t *testing.T) {
	boom := errors.New("boom")
	jobs := []Job{
		&squareJob{n: 1},
		&squareJob{n: 2, err: boom},
		&squareJob{n: 3, err: errors.New("later")},
	}

	results := NewBatchProcessor(3).Process(context.Background(), jobs)
	if err := FirstError(context.Background(), results); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}

	if NewBatchProcessor(0).Concurrency() != 1 {
		t.Error("expected concurrency to default to 1")
	}
}
