package window

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"basil/internal/core"
)

type fetchRecorder struct {
	mu    sync.Mutex
	calls []Span
	days  map[int][]core.Day // by year
	err   error
	block chan struct{} // when set, Fetch waits on it
}

func (f *fetchRecorder) Fetch(ctx context.Context, span Span) (Payload, error) {
	f.mu.Lock()
	f.calls = append(f.calls, span)
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if f.err != nil {
		return Payload{}, f.err
	}
	var days []core.Day
	for y := span.FromYear; y <= span.ToYear; y++ {
		days = append(days, f.days[y]...)
	}
	return Payload{Days: days}, nil
}

func (f *fetchRecorder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestCache(f *fetchRecorder) *Cache {
	c := New(f.Fetch)
	c.now = func() time.Time { return time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC) }
	return c
}

func TestEnsureExpandAndServeFromCache(t *testing.T) {
	f := &fetchRecorder{days: map[int][]core.Day{
		2020: {{ID: "d2020", Year: 2020, Month: 5, Day: 1}},
		2021: {{ID: "d2021", Year: 2021, Month: 5, Day: 1}},
		2022: {{ID: "d2022", Year: 2022, Month: 5, Day: 1}},
	}}
	c := newTestCache(f)
	ctx := context.Background()

	// Uncached: fetch exactly the requested span.
	if _, err := c.Ensure(ctx, &Span{2022, 2022}); err != nil {
		t.Fatal(err)
	}
	if got := f.calls[0]; got != (Span{2022, 2022}) {
		t.Fatalf("first fetch span = %v, want [2022,2022]", got)
	}

	// Wider request: refetch the whole widened span, not the delta.
	p, err := c.Ensure(ctx, &Span{2020, 2022})
	if err != nil {
		t.Fatal(err)
	}
	if got := f.calls[1]; got != (Span{2020, 2022}) {
		t.Fatalf("second fetch span = %v, want [2020,2022]", got)
	}
	if len(p.Days) != 3 {
		t.Fatalf("expected 3 days in widened payload, got %d", len(p.Days))
	}

	// Inside the cached span: no refetch.
	if _, err := c.Ensure(ctx, &Span{2021, 2021}); err != nil {
		t.Fatal(err)
	}
	if f.callCount() != 2 {
		t.Fatalf("expected 2 fetches total, got %d", f.callCount())
	}
	if w, ok := c.Window(); !ok || w != (Span{2020, 2022}) {
		t.Fatalf("window = %v (ok=%v), want [2020,2022]", w, ok)
	}
}

func TestPlanDefaultSpanWhenUncached(t *testing.T) {
	c := newTestCache(&fetchRecorder{})
	plan := c.Plan(nil)
	if !plan.ShouldFetch {
		t.Fatal("uncached plan must fetch")
	}
	if plan.Span != (Span{2024, 2025}) {
		t.Fatalf("default span = %v, want [2024,2025]", plan.Span)
	}
}

func TestPlanNilReusesCachedSpan(t *testing.T) {
	f := &fetchRecorder{}
	c := newTestCache(f)
	if _, err := c.Ensure(context.Background(), &Span{2019, 2023}); err != nil {
		t.Fatal(err)
	}
	plan := c.Plan(nil)
	if plan.ShouldFetch {
		t.Fatal("nil request with a cached span must not refetch")
	}
	if plan.Span != (Span{2019, 2023}) {
		t.Fatalf("plan span = %v, want cached [2019,2023]", plan.Span)
	}
}

func TestEnsureFailureKeepsLastGood(t *testing.T) {
	f := &fetchRecorder{days: map[int][]core.Day{
		2022: {{ID: "d2022", Year: 2022, Month: 0, Day: 5}},
	}}
	c := newTestCache(f)
	ctx := context.Background()

	if _, err := c.Ensure(ctx, &Span{2022, 2022}); err != nil {
		t.Fatal(err)
	}

	f.err = errors.New("storage down")
	if _, err := c.Ensure(ctx, &Span{2018, 2022}); err == nil {
		t.Fatal("expected fetch error")
	}

	// Old span and payload still in place.
	if w, ok := c.Window(); !ok || w != (Span{2022, 2022}) {
		t.Fatalf("window regressed to %v (ok=%v)", w, ok)
	}
	days := c.DaysInRange(core.DMY{Year: 2022, Month: 0, Day: 1}, core.DMY{Year: 2022, Month: 11, Day: 31})
	if len(days) != 1 || days[0].ID != "d2022" {
		t.Fatalf("cached payload lost: %+v", days)
	}

	// Once storage recovers, the expansion succeeds.
	f.err = nil
	if _, err := c.Ensure(ctx, &Span{2018, 2022}); err != nil {
		t.Fatal(err)
	}
	if w, _ := c.Window(); w != (Span{2018, 2022}) {
		t.Fatalf("window = %v, want [2018,2022]", w)
	}
}

func TestEnsureCoalescesConcurrentExpansion(t *testing.T) {
	f := &fetchRecorder{block: make(chan struct{})}
	c := newTestCache(f)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Ensure(ctx, &Span{2020, 2022})
		}()
	}

	// Wait for the first fetch to be in flight, then release it.
	deadline := time.After(2 * time.Second)
	for f.callCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("fetch never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	close(f.block)
	wg.Wait()

	if f.callCount() != 1 {
		t.Fatalf("expected a single coalesced fetch, got %d", f.callCount())
	}
}

func TestDaysInRangeTrimsToDayGranularity(t *testing.T) {
	f := &fetchRecorder{days: map[int][]core.Day{
		2024: {
			{ID: "jan1", Year: 2024, Month: 0, Day: 1},
			{ID: "jun15", Year: 2024, Month: 5, Day: 15},
			{ID: "dec31", Year: 2024, Month: 11, Day: 31},
		},
	}}
	c := newTestCache(f)
	if _, err := c.Ensure(context.Background(), &Span{2024, 2024}); err != nil {
		t.Fatal(err)
	}
	got := c.DaysInRange(core.DMY{Year: 2024, Month: 0, Day: 2}, core.DMY{Year: 2024, Month: 11, Day: 30})
	if len(got) != 1 || got[0].ID != "jun15" {
		t.Fatalf("day-granularity trim wrong: %+v", got)
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	f := &fetchRecorder{days: map[int][]core.Day{
		2024: {{ID: "d2024", Year: 2024, Month: 3, Day: 4}},
	}}
	c := newTestCache(f)
	ctx := context.Background()

	if _, err := c.Ensure(ctx, &Span{2024, 2024}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Ensure(ctx, &Span{2024, 2024}); err != nil {
		t.Fatal(err)
	}
	if f.callCount() != 1 {
		t.Fatalf("fetch calls before invalidate = %d, want 1", f.callCount())
	}

	c.Invalidate()
	if _, ok := c.Window(); ok {
		t.Fatal("window still cached after Invalidate")
	}

	if _, err := c.Ensure(ctx, &Span{2024, 2024}); err != nil {
		t.Fatal(err)
	}
	if f.callCount() != 2 {
		t.Fatalf("fetch calls after invalidate = %d, want 2", f.callCount())
	}
}

func TestDefaultRange(t *testing.T) {
	c := newTestCache(&fetchRecorder{})
	from, to := c.DefaultRange()
	if from != (core.DMY{Year: 2024, Month: 0, Day: 1}) || to != (core.DMY{Year: 2025, Month: 11, Day: 31}) {
		t.Fatalf("default range = %v..%v", from, to)
	}
}
