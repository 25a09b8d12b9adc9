package replay

import (
	"testing"

	"golang.org/x/net/html"
)

func el(tag string) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: tag}
}

func TestInsertNodeBeforeReference(t *testing.T) {
	parent := el("ul")
	a, b := el("li"), el("li")
	parent.AppendChild(a)

	got := insertNode(testLogger(), b, parent, a)
	if got != b {
		t.Fatal("insertNode should return the inserted node")
	}
	if parent.FirstChild != b || b.NextSibling != a {
		t.Error("b should precede a")
	}
}

func TestInsertNodeAppendsWhenNextForeign(t *testing.T) {
	parent := el("ul")
	other := el("div")
	foreign := el("li")
	other.AppendChild(foreign)
	a := el("li")
	parent.AppendChild(a)

	b := el("li")
	insertNode(testLogger(), b, parent, foreign)
	if parent.LastChild != b {
		t.Error("next outside parent should append")
	}
}

func TestInsertNodeNilParent(t *testing.T) {
	n := el("div")
	if got := insertNode(testLogger(), n, nil, nil); got != nil {
		t.Error("nil parent should return the absence marker")
	}
}

func TestInsertNodeReparents(t *testing.T) {
	p1, p2 := el("div"), el("div")
	n := el("span")
	p1.AppendChild(n)

	insertNode(testLogger(), n, p2, nil)
	if n.Parent != p2 {
		t.Error("node should have been reparented")
	}
	if p1.FirstChild != nil {
		t.Error("old parent should have no children")
	}
}

func TestInsertNodeRejectsCycle(t *testing.T) {
	a := el("div")
	b := el("div")
	a.AppendChild(b)

	if got := insertNode(testLogger(), a, b, nil); got != nil {
		t.Error("inserting a node under its own descendant must be rejected")
	}
	if got := insertNode(testLogger(), a, a, nil); got != nil {
		t.Error("inserting a node under itself must be rejected")
	}
}

func TestRemoveNodeDetaches(t *testing.T) {
	parent := el("div")
	n := el("span")
	parent.AppendChild(n)

	if got := removeNode(testLogger(), n); got != nil {
		t.Error("removeNode should return the absence marker")
	}
	if n.Parent != nil || parent.FirstChild != nil {
		t.Error("node should be detached")
	}
}

func TestRemoveNodeDetachedIsNoop(t *testing.T) {
	if got := removeNode(testLogger(), el("span")); got != nil {
		t.Error("removing a detached node returns the absence marker")
	}
	if got := removeNode(testLogger(), nil); got != nil {
		t.Error("removing nil returns the absence marker")
	}
}
