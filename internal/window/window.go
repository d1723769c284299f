// Package window keeps the client-side fetch window for day/expense data:
// the widest [from_year, to_year] span already loaded, the payload for it,
// and the decision of when a range request forces a refetch.
package window

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"basil/internal/core"
)

// Span is an inclusive [from_year, to_year] range of whole years.
type Span struct {
	FromYear int
	ToYear   int
}

func (s Span) String() string {
	return fmt.Sprintf("%d-%d", s.FromYear, s.ToYear)
}

// Contains reports whether other lies fully inside s.
func (s Span) Contains(other Span) bool {
	return other.FromYear >= s.FromYear && other.ToYear <= s.ToYear
}

// Covers reports whether s is at least as wide as other on both ends.
func (s Span) Covers(other Span) bool {
	return s.FromYear <= other.FromYear && s.ToYear >= other.ToYear
}

// FetchPlan is the outcome of a window decision: whether a storage fetch is
// needed and for which span.
type FetchPlan struct {
	ShouldFetch bool
	Span        Span
}

// Payload is a whole-span fetch result: day buckets with nested expenses
// plus the owner's categories.
type Payload struct {
	Days       []core.Day
	Categories []core.Category
}

// FetchFunc loads the full inclusive span from the storage collaborator.
type FetchFunc func(ctx context.Context, span Span) (Payload, error)

// Cache remembers the widest span fetched so far and serves every narrower
// request from the cached superset. Expansion refetches the whole new span;
// there is no incremental-append path. A failed or cancelled fetch leaves
// the previous span and payload untouched.
type Cache struct {
	fetch FetchFunc
	now   func() time.Time

	mu      sync.Mutex
	span    *Span
	payload Payload

	group singleflight.Group
}

func New(fetch FetchFunc) *Cache {
	return &Cache{fetch: fetch, now: time.Now}
}

func (c *Cache) defaultSpan() Span {
	year := c.now().Year()
	return Span{FromYear: year - 1, ToYear: year}
}

// Plan decides whether requested needs a fetch. It does not perform one.
//
//   - Nothing fetched yet: fetch the requested span, or the default
//     [this_year-1, this_year] when there is no request.
//   - Request inside the cached span (or nil): serve from cache.
//   - Request outside: widen the cached span to cover it and refetch the
//     whole widened span.
func (c *Cache) Plan(requested *Span) FetchPlan {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.planLocked(requested)
}

func (c *Cache) planLocked(requested *Span) FetchPlan {
	if c.span == nil {
		if requested == nil {
			return FetchPlan{ShouldFetch: true, Span: c.defaultSpan()}
		}
		return FetchPlan{ShouldFetch: true, Span: *requested}
	}
	if requested == nil || c.span.Contains(*requested) {
		return FetchPlan{ShouldFetch: false, Span: *c.span}
	}
	widened := *c.span
	if requested.FromYear < widened.FromYear {
		widened.FromYear = requested.FromYear
	}
	if requested.ToYear > widened.ToYear {
		widened.ToYear = requested.ToYear
	}
	return FetchPlan{ShouldFetch: true, Span: widened}
}

// Ensure executes the plan for requested and returns the cached payload,
// fetching first when the request falls outside the current span.
// Concurrent requests for the same expansion are coalesced: the second
// caller awaits the first fetch instead of racing its own, so an
// out-of-order response can never shrink the window.
func (c *Cache) Ensure(ctx context.Context, requested *Span) (Payload, error) {
	c.mu.Lock()
	plan := c.planLocked(requested)
	if !plan.ShouldFetch {
		payload := c.payload
		c.mu.Unlock()
		return payload, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(plan.Span.String(), func() (any, error) {
		payload, err := c.fetch(ctx, plan.Span)
		if err != nil {
			return Payload{}, err
		}
		c.commit(plan.Span, payload)
		return payload, nil
	})
	if err != nil {
		return Payload{}, fmt.Errorf("fetch span %s: %w", plan.Span, err)
	}
	return v.(Payload), nil
}

// commit replaces span and payload together, and only ever widens: a stale
// fetch that no longer covers the current window is discarded.
func (c *Cache) commit(span Span, payload Payload) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.span != nil && !span.Covers(*c.span) {
		return
	}
	c.span = &span
	c.payload = payload
}

// Invalidate drops the cached span and payload so the next Ensure refetches.
// Callers invoke it after writes that change the underlying days.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.span = nil
	c.payload = Payload{}
}

// Window returns the currently cached span, if any fetch has succeeded.
func (c *Cache) Window() (Span, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.span == nil {
		return Span{}, false
	}
	return *c.span, true
}

// Categories returns the categories of the cached payload.
func (c *Cache) Categories() []core.Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.payload.Categories
}

// DaysInRange trims the cached payload to the exact [from, to] day range.
// The cache granularity is whole years; this is where day/month precision
// is applied.
func (c *Cache) DaysInRange(from, to core.DMY) []core.Day {
	c.mu.Lock()
	days := c.payload.Days
	c.mu.Unlock()
	return core.FilterByRange(days, from, to)
}

// DefaultRange is the day range served when the caller picked no dates:
// the default span trimmed to whole calendar years, January 1st through
// December 31st. The cached span may be wider; it is not refetched.
func (c *Cache) DefaultRange() (core.DMY, core.DMY) {
	span := c.defaultSpan()
	return core.DMY{Year: span.FromYear, Month: 0, Day: 1},
		core.DMY{Year: span.ToYear, Month: 11, Day: 31}
}
