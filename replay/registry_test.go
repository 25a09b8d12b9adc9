package replay

import (
	"testing"

	"golang.org/x/net/html"
)

func TestRegistryTombstone(t *testing.T) {
	r := newRegistry()
	n := &html.Node{Type: html.ElementNode, Data: "div"}

	r.set(1, n)
	if got := r.resolve(1); got != n {
		t.Fatal("resolve after set")
	}

	r.set(1, nil)
	got, known := r.get(1)
	if !known {
		t.Error("tombstoned index should stay known")
	}
	if got != nil {
		t.Error("tombstoned index should resolve to nil")
	}
	if r.resolve(1) != nil {
		t.Error("resolve should treat tombstone as absent")
	}
}

func TestRegistryZeroIndexAbsent(t *testing.T) {
	r := newRegistry()
	r.set(0, &html.Node{Type: html.ElementNode, Data: "div"})
	if r.resolve(0) != nil {
		t.Error("index 0 is the producer's absent reference, never resolvable")
	}
}

func TestRegistryReset(t *testing.T) {
	r := newRegistry()
	r.set(1, &html.Node{Type: html.ElementNode, Data: "div"})
	r.set(2, nil)

	r.reset()
	if r.len() != 0 {
		t.Fatalf("len after reset: got %d, want 0", r.len())
	}
	if _, known := r.get(1); known {
		t.Error("reset should forget live entries")
	}
	if _, known := r.get(2); known {
		t.Error("reset should forget tombstones")
	}
}
