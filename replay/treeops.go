package replay

import (
	"log/slog"

	"golang.org/x/net/html"
)

// Tree edit primitives. x/net/html panics on precondition violations
// (attached child, wrong-parent sibling), so both operations verify
// preconditions explicitly and degrade to a logged skip instead — a
// rejected edit must never abort the rest of the record.

// insertNode attaches n under parent, immediately before next when next is
// currently a child of parent, otherwise as the last child. Returns n, or
// nil when the insertion was skipped, so callers can store the result in
// the registry in one step.
func insertNode(logger *slog.Logger, n, parent, next *html.Node) *html.Node {
	if parent == nil {
		return nil
	}
	if n == nil {
		logger.Warn("replay: insert skipped, no node")
		return nil
	}
	if n == parent || isAncestor(n, parent) {
		logger.Warn("replay: insert rejected, node is ancestor of parent")
		return nil
	}
	detach(n)
	if next != nil && next.Parent == parent {
		parent.InsertBefore(n, next)
	} else {
		parent.AppendChild(n)
	}
	return n
}

// removeNode detaches n from its parent. Detached and nil nodes are logged
// and skipped. Returns nil so callers can tombstone the registry slot.
func removeNode(logger *slog.Logger, n *html.Node) *html.Node {
	if n == nil || n.Parent == nil {
		logger.Warn("replay: remove skipped, node not attached")
		return nil
	}
	n.Parent.RemoveChild(n)
	return nil
}

// detach unlinks n from its current parent, if any.
func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// isAncestor reports whether a is an ancestor of n.
func isAncestor(a, n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p == a {
			return true
		}
	}
	return false
}

// removeChildren detaches every child of n.
func removeChildren(n *html.Node) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
}
