// Package replay reconstructs a captured document tree from a stream of
// layout mutation records.
//
// It is the consumer half of the session-replay pipeline: the producer
// observed the source page and serialised the minimal edit operations; the
// engine applies them, in order, to a target surface — an x/net/html
// document tree — while preserving structural identity across updates.
// Reconstruction is best-effort by design: the stream may be truncated or
// lossy, so missing references are skipped with a structured diagnostic,
// never raised to the caller.
package replay

import (
	"log/slog"
	"strconv"

	"golang.org/x/net/html"

	"github.com/Microsoft/clarity-tools/replay/layout"
)

// placeholderImage is a transparent 1×1 GIF data URI, substituted for media
// whose real pixels are unavailable at replay time.
const placeholderImage = "data:image/gif;base64,R0lGODlhAQABAIAAAAAAAP///yH5BAEAAAAALAAAAAABAAEAAAIBRAA7"

// Engine applies layout mutation records to a target document tree. All
// state lives in the node registry; Render is synchronous and must be called
// from a single goroutine, one record to completion at a time, in capture
// order.
type Engine struct {
	doc       *html.Node // target document node
	container *html.Node // attach point for the reconstructed root; defaults to doc
	base      string     // capture origin for relative URL resolution
	nodes     *registry
	logger    *slog.Logger
	thumbnail bool
	skipped   int // operations dropped on structural inconsistency
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithThumbnail marks the engine for thumbnail-mode reconstruction.
// Accepted and carried, reserved for a lighter-weight variant.
func WithThumbnail(on bool) Option {
	return func(e *Engine) { e.thumbnail = on }
}

// New creates an Engine. Call Setup before the first Render.
func New(opts ...Option) *Engine {
	e := &Engine{
		nodes:  newRegistry(),
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Setup clears the registry and binds the target document, the container the
// reconstructed root attaches under (nil = the document itself), and the
// capture's base URL used for the injected base element.
func (e *Engine) Setup(doc *html.Node, container *html.Node, base string) {
	e.doc = doc
	e.container = container
	if e.container == nil {
		e.container = doc
	}
	e.base = base
	e.nodes.reset()
	e.skipped = 0
}

// SkippedOps reports how many operations were dropped as structurally
// inconsistent since Setup. Observability only; a skipped operation is
// never retried.
func (e *Engine) SkippedOps() int {
	return e.skipped
}

// Reset is a hook for specialisations that need extra teardown on document
// reset. The base engine keeps no state outside the registry.
func (e *Engine) Reset() {}

// Render applies one mutation record. It never fails: both structural
// inconsistencies and surface rejections are logged and skipped, and sibling
// operations within the record still proceed.
func (e *Engine) Render(rec *layout.Record) {
	if e.doc == nil {
		e.logger.Warn("replay: render before setup", "index", rec.Index)
		return
	}
	switch rec.Action {
	case layout.ActionInsert:
		e.insert(rec)
	case layout.ActionUpdate:
		e.update(rec)
	case layout.ActionRemove:
		e.remove(rec)
	case layout.ActionMove:
		e.move(rec)
	default:
		e.logger.Warn("replay: unknown action", "action", string(rec.Action), "index", rec.Index)
	}
}

func (e *Engine) insert(rec *layout.Record) {
	parent := e.nodes.resolve(rec.Parent)
	if rec.Parent != 0 && parent == nil {
		e.skipped++
		e.logger.Warn("replay: insert parent missing",
			"index", rec.Index, "parent", rec.Parent, "tag", rec.Tag)
	}
	next := e.nodes.resolve(rec.Next)

	var node *html.Node
	switch KindOf(rec.Tag) {
	case KindDoctype:
		e.nodes.reset()
		e.Reset()
		e.writeDoctype(rec)
		node = e.doc

	case KindRoot:
		node = e.insertRoot(rec)

	case KindHead:
		node = e.insertHead(rec, parent, next)

	case KindText:
		node = insertNode(e.logger, createText(rec.Content), parent, next)

	case KindObject:
		// Embedded objects are never reconstructed.

	case KindFrame:
		// Real frame content is a separate capture; without geometry there
		// is nothing to stand in for.
		if rec.Layout != nil {
			node = e.insertMedia(rec, parent, next)
		}

	case KindImage:
		node = e.insertMedia(rec, parent, next)

	case KindIgnored:
		node = e.insertIgnored(rec, parent, next)

	case KindStyle, KindElement:
		node = e.insertElement(rec, parent, next)
	}

	e.nodes.set(rec.Index, node)
}

func (e *Engine) update(rec *layout.Record) {
	node, known := e.nodes.get(rec.Index)
	if node == nil {
		reason := "never inserted"
		if known {
			reason = "removed"
		}
		e.skipped++
		e.logger.Warn("replay: update target missing",
			"index", rec.Index, "tag", rec.Tag, "reason", reason)
		return
	}

	switch kind := KindOf(rec.Tag); kind {
	case KindText:
		if rec.Content != "" {
			node.Data = rec.Content
		}

	case KindDoctype, KindObject, KindIgnored:
		// Not updatable.

	case KindRoot, KindHead, KindFrame, KindImage, KindStyle, KindElement:
		// Update is a full replace, not a patch: the record carries the
		// complete attribute set.
		clearAttributes(node)
		applyAttributes(e.logger, node, rec.Attributes)
		restoreScroll(node, rec.Layout)
		if kind == KindImage {
			applyPlaceholder(node, rec.Layout)
		}
	}

	e.nodes.set(rec.Index, node)
}

func (e *Engine) remove(rec *layout.Record) {
	node, known := e.nodes.get(rec.Index)
	if !known {
		e.skipped++
		e.logger.Warn("replay: remove target never inserted", "index", rec.Index)
	}
	// Tombstone the slot either way: future records may legitimately no
	// longer reference this index.
	e.nodes.set(rec.Index, removeNode(e.logger, node))
}

func (e *Engine) move(rec *layout.Record) {
	node := e.nodes.resolve(rec.Index)
	parent := e.nodes.resolve(rec.Parent)
	if node == nil || parent == nil {
		// A move can legitimately reference a node whose insert was dropped
		// upstream. Skip, leave tree and registry unchanged.
		e.skipped++
		e.logger.Warn("replay: move reference missing",
			"index", rec.Index, "parent", rec.Parent,
			"node_present", node != nil, "parent_present", parent != nil)
		return
	}
	next := e.nodes.resolve(rec.Next)
	e.nodes.set(rec.Index, insertNode(e.logger, node, parent, next))
}

// writeDoctype rewrites the document's doctype declaration from the record's
// attributes (name, publicId, systemId).
func (e *Engine) writeDoctype(rec *layout.Record) {
	for c := e.doc.FirstChild; c != nil; {
		nc := c.NextSibling
		if c.Type == html.DoctypeNode {
			e.doc.RemoveChild(c)
		}
		c = nc
	}
	name := rec.Attributes["name"]
	if name == "" {
		name = "html"
	}
	dt := &html.Node{Type: html.DoctypeNode, Data: name}
	if p := rec.Attributes["publicId"]; p != "" {
		dt.Attr = append(dt.Attr, html.Attribute{Key: "public", Val: p})
	}
	if s := rec.Attributes["systemId"]; s != "" {
		dt.Attr = append(dt.Attr, html.Attribute{Key: "system", Val: s})
	}
	e.doc.InsertBefore(dt, e.doc.FirstChild)
}

// insertRoot builds a fresh root element and replaces the container's
// existing root wholesale. The surface never auto-creates head or body, so
// the replacement alone yields a clean slate for reconstruction.
func (e *Engine) insertRoot(rec *layout.Record) *html.Node {
	root := createElement(rec.Tag, nil)
	applyAttributes(e.logger, root, rec.Attributes)
	for c := e.container.FirstChild; c != nil; {
		nc := c.NextSibling
		if c.Type == html.ElementNode {
			e.container.RemoveChild(c)
		}
		c = nc
	}
	e.container.AppendChild(root)
	return root
}

// insertHead creates the head element and injects a synthetic base element
// pointing at the capture origin, so relative URLs inside the replayed
// subtree resolve against the original source rather than the replay
// surface. The injected element is not tracked by the registry.
func (e *Engine) insertHead(rec *layout.Record, parent, next *html.Node) *html.Node {
	head := createElement(rec.Tag, parent)
	applyAttributes(e.logger, head, rec.Attributes)
	if e.base != "" {
		base := createElement("base", head)
		setAttribute(base, "href", e.base)
		head.AppendChild(base)
	}
	return insertNode(e.logger, head, parent, next)
}

// insertMedia creates an element whose real content is unavailable at replay
// time and substitutes a sized placeholder when no source resolved.
func (e *Engine) insertMedia(rec *layout.Record, parent, next *html.Node) *html.Node {
	n := createElement(rec.Tag, parent)
	applyAttributes(e.logger, n, rec.Attributes)
	applyPlaceholder(n, rec.Layout)
	return insertNode(e.logger, n, parent, next)
}

// insertIgnored creates an invisible placeholder carrying the original
// node's kind and tag, so intentionally-redacted subtrees leave a
// structurally visible but inert marker rather than disappearing.
func (e *Engine) insertIgnored(rec *layout.Record, parent, next *html.Node) *html.Node {
	n := createElement("div", parent)
	setAttribute(n, "style", "display: none")
	setAttribute(n, "data-original-kind", strconv.Itoa(rec.OriginalKind))
	if rec.OriginalTag != "" {
		setAttribute(n, "data-original-tag", rec.OriginalTag)
	}
	return insertNode(e.logger, n, parent, next)
}

// insertElement is the default arm: ordinary elements, including stylesheet
// elements whose rule text arrives as ordered raw strings.
func (e *Engine) insertElement(rec *layout.Record, parent, next *html.Node) *html.Node {
	n := createElement(rec.Tag, parent)
	applyAttributes(e.logger, n, rec.Attributes)
	restoreScroll(n, rec.Layout)
	if KindOf(rec.Tag) == KindStyle {
		for _, rule := range rec.CSSRules {
			n.AppendChild(createText(rule))
		}
	}
	return insertNode(e.logger, n, parent, next)
}

// applyPlaceholder substitutes the transparent placeholder for media with no
// resolved source, forcing explicit pixel dimensions from the captured
// geometry so layout is preserved even though real pixels are unavailable.
func applyPlaceholder(n *html.Node, box *layout.Box) {
	if attributeValue(n, "src") != "" {
		return
	}
	setAttribute(n, "src", placeholderImage)
	if box != nil && (box.Width > 0 || box.Height > 0) {
		setStyleProps(n,
			[2]string{"width", strconv.Itoa(box.Width) + "px"},
			[2]string{"height", strconv.Itoa(box.Height) + "px"},
		)
	}
}

// restoreScroll records non-zero captured scroll offsets on the node. The
// surface itself is inert; the viewer reapplies the offsets at display time.
func restoreScroll(n *html.Node, box *layout.Box) {
	if box == nil || (box.ScrollX == 0 && box.ScrollY == 0) {
		return
	}
	setAttribute(n, "data-scroll-left", strconv.Itoa(box.ScrollX))
	setAttribute(n, "data-scroll-top", strconv.Itoa(box.ScrollY))
}
