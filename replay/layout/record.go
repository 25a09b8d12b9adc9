// Package layout defines the mutation-record types consumed by the replay
// engine. These are the public API contract: the stream producer (the code
// that observed the source page) emits these records, and any replay
// consumer imports this package to decode and apply them.
package layout

// Action is the kind of tree mutation a record describes.
type Action string

const (
	ActionInsert Action = "insert" // new node at index, attached under parent
	ActionUpdate Action = "update" // in-place mutation of an existing index
	ActionRemove Action = "remove" // detach the node at index
	ActionMove   Action = "move"   // re-attach an existing index elsewhere
)

// Structural pseudo-tags. The producer assigns these instead of an element
// tag name for nodes that are not ordinary elements.
const (
	TagDoctype = "*DOC*"    // document/doctype marker — triggers a full reset
	TagText    = "*TXT*"    // text node, payload in Content
	TagIgnore  = "*IGNORE*" // intentionally-opaque subtree placeholder
)

// Box is the captured geometry of a node: rendered size and scroll offsets.
// Used for image placeholder sizing and scroll restoration.
type Box struct {
	Width   int `json:"width,omitempty"`
	Height  int `json:"height,omitempty"`
	ScrollX int `json:"scrollX,omitempty"`
	ScrollY int `json:"scrollY,omitempty"`
}

// Record is a single layout mutation. Index is the producer-assigned
// identity, stable for the node's lifetime; Parent and Next reference other
// indices (0 = absent) and are meaningful only for insert/move.
type Record struct {
	Action       Action            `json:"action"`
	Index        int               `json:"index"`
	Parent       int               `json:"parent,omitempty"`
	Next         int               `json:"next,omitempty"`
	Tag          string            `json:"tag,omitempty"`
	Attributes   map[string]string `json:"attributes,omitempty"`
	Layout       *Box              `json:"layout,omitempty"`
	Content      string            `json:"content,omitempty"`       // text nodes only
	CSSRules     []string          `json:"cssRules,omitempty"`      // stylesheet elements only
	OriginalKind int               `json:"originalKind,omitempty"`  // ignored nodes: source node type
	OriginalTag  string            `json:"originalTag,omitempty"`   // ignored nodes: source tag name
}

// Envelope is the atomic delivery unit: all records captured for one page in
// one flush, in the exact order they were observed. Seq is monotonically
// increasing per session so consumers can detect gaps.
type Envelope struct {
	ID        string   `json:"id"` // UUIDv7
	SessionID string   `json:"session_id"`
	Seq       uint64   `json:"seq"`
	Records   []Record `json:"records"`
	BaseURL   string   `json:"base_url,omitempty"` // capture origin, for relative URL resolution
	Timestamp int64    `json:"timestamp"`          // epoch milliseconds at flush
}
