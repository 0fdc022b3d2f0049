package cache

import (
	"testing"
	"time"

	"github.com/edgeplane/corectl/internal/types"
)

func TestPutGetRoundTrip(t *testing.T) {
	c := New()
	items := types.Items{"x": {Value: "1"}}
	c.Put("cat1", items, "Cat One")

	got, display, ok := c.Get("cat1")
	if !ok {
		t.Fatal("expected cat1 to be present")
	}
	if display != "Cat One" {
		t.Errorf("display = %q, want %q", display, "Cat One")
	}
	if got["x"].Value != "1" {
		t.Errorf("item value = %q, want 1", got["x"].Value)
	}
}

func TestContainsTracksHitsAndMisses(t *testing.T) {
	c := New()
	if c.Contains("missing") {
		t.Error("expected miss for uncached category")
	}
	c.Put("cat1", types.Items{}, "")
	if !c.Contains("cat1") {
		t.Error("expected hit for cached category")
	}
}

func TestLenNeverExceedsCapacity(t *testing.T) {
	c := New()
	for i := 0; i < Capacity+5; i++ {
		name := string(rune('a' + i))
		c.Put(name, types.Items{}, "")
		if c.Len() > Capacity {
			t.Fatalf("Len() = %d, exceeds Capacity %d", c.Len(), Capacity)
		}
	}
	if c.Len() != Capacity {
		t.Errorf("Len() = %d, want exactly %d after overfilling", c.Len(), Capacity)
	}
}

func TestEvictionPicksOldestLastAccess(t *testing.T) {
	c := New()
	for i := 0; i < Capacity; i++ {
		name := string(rune('a' + i))
		c.Put(name, types.Items{}, "")
	}

	// Touch every entry except "a" so "a" has the oldest last-access time.
	for i := 1; i < Capacity; i++ {
		name := string(rune('a' + i))
		c.Contains(name)
	}
	time.Sleep(time.Millisecond)

	c.Put("new", types.Items{}, "")

	if c.Contains("a") {
		t.Error("expected the never-touched entry 'a' to be evicted")
	}
	if !c.Contains("new") {
		t.Error("expected the newly inserted entry to be present")
	}
}

func TestPutItemPatchesCachedCategory(t *testing.T) {
	c := New()
	c.Put("cat1", types.Items{"x": {Value: "1"}}, "")
	c.PutItem("cat1", "y", types.Item{Value: "2"})

	got, _, _ := c.Get("cat1")
	if got["y"].Value != "2" {
		t.Errorf("expected patched item y=2, got %+v", got["y"])
	}
	if got["x"].Value != "1" {
		t.Errorf("expected original item x=1 preserved, got %+v", got["x"])
	}
}

func TestPutItemNoopWhenNotCached(t *testing.T) {
	c := New()
	c.PutItem("absent", "y", types.Item{Value: "2"})
	if c.Contains("absent") {
		t.Error("PutItem should not create an entry for an uncached category")
	}
}

func TestRemove(t *testing.T) {
	c := New()
	c.Put("cat1", types.Items{}, "")
	c.Remove("cat1")
	if c.Contains("cat1") {
		t.Error("expected cat1 removed")
	}
}
