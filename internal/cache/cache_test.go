package cache

import (
	"errors"
	"strconv"
	"testing"
)

func TestSetGet(t *testing.T) {
	c := New[string, int](4)
	c.Set("a", 1)
	c.Set("a", 2)

	if v, ok := c.Get("a"); !ok || v != 2 {
		t.Errorf("Get(a) = %d, %v, want 2, true", v, ok)
	}
	if _, ok := c.Get("b"); ok {
		t.Error("Get(b) found a missing key")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
	if got := c.Stats(); got.Hits != 1 || got.Misses != 1 {
		t.Errorf("Stats() = %+v, want 1 hit and 1 miss", got)
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	var evicted []string
	c := New(2, WithEvict(func(k string, _ int) { evicted = append(evicted, k) }))
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("%s was evicted", k)
		}
	}
	if len(evicted) != 1 || evicted[0] != "b" {
		t.Errorf("evicted = %v, want [b]", evicted)
	}
	if got := c.Stats().Evictions; got != 1 {
		t.Errorf("Evictions = %d, want 1", got)
	}
}

func TestUnbounded(t *testing.T) {
	c := New[int, int](0)
	for i := range 100 {
		c.Set(i, i)
	}
	if c.Len() != 100 {
		t.Errorf("Len() = %d, want 100", c.Len())
	}
}

func TestGetOrCreate(t *testing.T) {
	c := New[string, string](8)
	calls := 0
	create := func() (string, error) {
		calls++
		return "v" + strconv.Itoa(calls), nil
	}

	first, err := c.GetOrCreate("k", create)
	if err != nil {
		t.Fatal(err)
	}
	second, _ := c.GetOrCreate("k", create)
	if first != second || calls != 1 {
		t.Errorf("GetOrCreate ran create %d times (%q, %q)", calls, first, second)
	}

	boom := errors.New("boom")
	if _, err := c.GetOrCreate("bad", func() (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Errorf("GetOrCreate() error = %v, want boom", err)
	}
	if _, ok := c.Get("bad"); ok {
		t.Error("failed create was cached")
	}
}

func TestDeleteAndClear(t *testing.T) {
	evictions := 0
	c := New(3, WithEvict(func(string, int) { evictions++ }))
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	if !c.Delete("b") || c.Delete("b") {
		t.Error("Delete(b) should succeed exactly once")
	}
	c.Set("d", 4)
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d", c.Len())
	}
	c.Set("e", 5)
	if v, ok := c.Get("e"); !ok || v != 5 {
		t.Error("cache unusable after Clear")
	}
	if evictions != 0 {
		t.Errorf("Delete/Clear triggered %d evictions", evictions)
	}
	if c.Capacity() != 3 {
		t.Errorf("Capacity() = %d", c.Capacity())
	}
}

func BenchmarkCacheGet(b *testing.B) {
	c := New[string, int](1000)
	for i := range 100 {
		c.Set(strconv.Itoa(i), i)
	}
	b.ResetTimer()
	for b.Loop() {
		c.Get("50")
	}
}
