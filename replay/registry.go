package replay

import "golang.org/x/net/html"

// registry is the index → live-node map, the engine's only notion of object
// identity across records. A removed index keeps its slot with a nil node
// (tombstone), so "existed then removed" stays distinguishable from "never
// existed". Indices are reused only across a full reset.
type registry struct {
	nodes map[int]*html.Node
}

func newRegistry() *registry {
	return &registry{nodes: make(map[int]*html.Node)}
}

// set records the node (or nil tombstone) for an index.
func (r *registry) set(index int, n *html.Node) {
	r.nodes[index] = n
}

// get returns the node for an index and whether the index has ever been
// seen. A known index with a nil node means removed.
func (r *registry) get(index int) (*html.Node, bool) {
	n, ok := r.nodes[index]
	return n, ok
}

// resolve returns the live node for an index, or nil if the index is
// unknown, removed, or zero (the producer's "absent" reference).
func (r *registry) resolve(index int) *html.Node {
	if index == 0 {
		return nil
	}
	return r.nodes[index]
}

// reset discards every entry. Triggered by a new doctype record.
func (r *registry) reset() {
	r.nodes = make(map[int]*html.Node)
}

func (r *registry) len() int {
	return len(r.nodes)
}
