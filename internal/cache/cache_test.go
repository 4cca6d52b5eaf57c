package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestGetSetExpiry(t *testing.T) {
	clk := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[string]("test", 10, time.Minute).WithClock(clk.now)

	c.Set("a", "1")
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("expected hit, got %q %v", v, ok)
	}
	clk.advance(61 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected expired entry to miss")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry should be dropped on access")
	}
	st := c.Stats()
	if st.Hits != 1 || st.Misses != 1 || st.HitRate != "50.0%" {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestEvictsClosestToExpiry(t *testing.T) {
	clk := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[int]("test", 2, time.Hour).WithClock(clk.now)

	c.Set("first", 1)
	clk.advance(time.Second)
	c.Set("second", 2)
	clk.advance(time.Second)
	c.Set("third", 3)

	if c.Len() != 2 {
		t.Fatalf("expected capacity to hold, got %d", c.Len())
	}
	if _, ok := c.Get("first"); ok {
		t.Fatalf("oldest entry should have been evicted")
	}
	for _, k := range []string{"second", "third"} {
		if _, ok := c.Get(k); !ok {
			t.Fatalf("expected %s to survive", k)
		}
	}
}

func TestOverwriteDoesNotEvict(t *testing.T) {
	c := New[int]("test", 2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 3)
	if v, _ := c.Get("a"); v != 3 {
		t.Fatalf("expected overwrite, got %d", v)
	}
	if _, ok := c.Get("b"); !ok {
		t.Fatalf("overwrite should not evict other keys")
	}
}

func TestPrune(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	c := New[int]("test", 5, time.Minute).WithClock(clk.now)
	c.Set("a", 1)
	c.Set("b", 2)
	clk.advance(2 * time.Minute)
	c.Set("c", 3)
	if n := c.Prune(); n != 2 {
		t.Fatalf("expected 2 pruned, got %d", n)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 left, got %d", c.Len())
	}
}
