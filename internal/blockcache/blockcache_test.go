package blockcache

import "testing"

func TestAddGetRoundTrip(t *testing.T) {
	c := New(1<<20, 4096)
	key := Key{Extent: 1, Offset: 0}
	want := []byte("decoded block contents")

	if _, ok := c.Get(key); ok {
		t.Fatal("unexpected hit before Add")
	}
	c.Add(key, want)
	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected hit after Add")
	}
	if string(got) != string(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestDistinctOffsetsDistinctEntries(t *testing.T) {
	c := New(1<<20, 4096)
	c.Add(Key{Extent: 1, Offset: 0}, []byte("a"))
	c.Add(Key{Extent: 1, Offset: 100}, []byte("b"))

	a, ok := c.Get(Key{Extent: 1, Offset: 0})
	if !ok || string(a) != "a" {
		t.Fatalf("Get(offset=0) = %q, %v", a, ok)
	}
	b, ok := c.Get(Key{Extent: 1, Offset: 100})
	if !ok || string(b) != "b" {
		t.Fatalf("Get(offset=100) = %q, %v", b, ok)
	}
}

func TestNewClampsToAtLeastOneEntry(t *testing.T) {
	c := New(1, 1<<20)
	c.Add(Key{Extent: 1, Offset: 0}, []byte("x"))
	if _, ok := c.Get(Key{Extent: 1, Offset: 0}); !ok {
		t.Fatal("expected a single-entry cache to still hold its one Add")
	}
}
