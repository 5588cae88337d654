package digest

import "testing"

func TestContentStable(t *testing.T) {
	a := Content([]byte("hello"))
	b := Content([]byte("hello"))
	if a != b {
		t.Fatalf("Content not stable: %d != %d", a, b)
	}
}

func TestContentDistinguishesInput(t *testing.T) {
	if Content([]byte("hello")) == Content([]byte("world")) {
		t.Fatal("distinct inputs hashed equal")
	}
}

func TestExtentDistinguishesOffsetAndLength(t *testing.T) {
	a := Extent(0, 10)
	b := Extent(10, 10)
	c := Extent(0, 20)
	if a == b || a == c || b == c {
		t.Fatal("distinct extents hashed equal")
	}
}

func TestExtentStable(t *testing.T) {
	if Extent(5, 100) != Extent(5, 100) {
		t.Fatal("Extent not stable")
	}
}
