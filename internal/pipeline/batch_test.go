package pipeline

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/schoolscan/internal/model"
)

func newTestAssessments(n int) []*model.Assessment {
	assessments := make([]*model.Assessment, n)
	for i := range assessments {
		assessments[i] = model.NewAssessment(model.Institution{
			URN:  strconv.Itoa(100000 + i),
			Name: "School " + strconv.Itoa(i),
		})
	}
	return assessments
}

func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	t.Run("creates processor with defaults", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Pipeline { return New() })

		if bp.concurrency != DefaultConcurrency {
			t.Errorf("expected default concurrency %d, got %d", DefaultConcurrency, bp.concurrency)
		}
		if bp.logger == nil {
			t.Error("expected non-nil logger")
		}
	})

	t.Run("applies WithConcurrency option", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Pipeline { return New() }, WithConcurrency(7))

		if bp.concurrency != 7 {
			t.Errorf("expected concurrency 7, got %d", bp.concurrency)
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Pipeline { return New() }, WithConcurrency(-1))

		if bp.concurrency != DefaultConcurrency {
			t.Errorf("expected concurrency %d, got %d", DefaultConcurrency, bp.concurrency)
		}
	})

	t.Run("nil batch logger falls back to default", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Pipeline { return New() }, WithBatchLogger(nil))

		if bp.logger == nil {
			t.Error("expected non-nil logger")
		}
	})
}

func TestBatchProcessorProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("processes every assessment in input order", func(t *testing.T) {
		t.Parallel()

		var processed atomic.Int32
		bp := NewBatchProcessor(func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{
				name: "count",
				doFunc: func(_ context.Context, _ *model.Assessment) error {
					processed.Add(1)
					return nil
				},
			})
			return p
		})

		input := newTestAssessments(3)
		results, err := bp.ProcessBatch(context.Background(), input)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if processed.Load() != 3 {
			t.Errorf("expected 3 processed, got %d", processed.Load())
		}
		for i, a := range results {
			if a != input[i] {
				t.Errorf("result %d is not the input assessment", i)
			}
			if len(a.PerformedSteps) != 1 {
				t.Errorf("result %d: expected 1 performed step, got %v", i, a.PerformedSteps)
			}
		}
	})

	t.Run("respects concurrency limit", func(t *testing.T) {
		t.Parallel()

		var current, peak atomic.Int32
		var mu sync.Mutex

		bp := NewBatchProcessor(func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{
				name: "slow",
				doFunc: func(_ context.Context, _ *model.Assessment) error {
					n := current.Add(1)
					mu.Lock()
					if n > peak.Load() {
						peak.Store(n)
					}
					mu.Unlock()
					time.Sleep(20 * time.Millisecond)
					current.Add(-1)
					return nil
				},
			})
			return p
		}, WithConcurrency(2))

		if _, err := bp.ProcessBatch(context.Background(), newTestAssessments(8)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if peak.Load() > 2 {
			t.Errorf("peak concurrency was %d, expected <= 2", peak.Load())
		}
	})

	t.Run("continues after an individual failure", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{
				name: "match",
				doFunc: func(_ context.Context, a *model.Assessment) error {
					if a.Institution.URN == "100001" {
						return model.ErrNoImprovementAreas
					}
					return nil
				},
			})
			return p
		})

		results, err := bp.ProcessBatch(context.Background(), newTestAssessments(3))

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !results[1].Refused() {
			t.Error("expected second assessment to be refused")
		}
		if results[0].Error != nil || results[2].Error != nil {
			t.Error("expected other assessments to succeed")
		}
	})

	t.Run("handles context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		var started atomic.Int32

		bp := NewBatchProcessor(func() *Pipeline {
			p := New()
			p.AddStep(&mockStep{
				name: "block",
				doFunc: func(ctx context.Context, _ *model.Assessment) error {
					started.Add(1)
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-time.After(time.Second):
						return nil
					}
				},
			})
			return p
		}, WithConcurrency(2))

		go func() {
			time.Sleep(50 * time.Millisecond)
			cancel()
		}()

		_, err := bp.ProcessBatch(ctx, newTestAssessments(10))

		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if started.Load() >= 10 {
			t.Error("expected some assessments not to start")
		}
	})
}

func TestBatchProcessorProcessBatchWithCallback(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	seen := make(map[int]string)

	bp := NewBatchProcessor(func() *Pipeline {
		p := New()
		p.AddStep(&mockStep{name: "noop"})
		return p
	})

	input := newTestAssessments(3)
	err := bp.ProcessBatchWithCallback(context.Background(), input, func(a *model.Assessment, i int) {
		mu.Lock()
		seen[i] = a.Institution.URN
		mu.Unlock()
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 3 {
		t.Fatalf("expected 3 callbacks, got %d", len(seen))
	}
	for i, a := range input {
		if seen[i] != a.Institution.URN {
			t.Errorf("callback %d: got URN %q, want %q", i, seen[i], a.Institution.URN)
		}
	}
}
