package replay

import (
	"strings"

	"github.com/Microsoft/clarity-tools/replay/layout"
)

// Kind classifies a record's target node for dispatch. The set is closed:
// every tag the producer can emit maps to exactly one Kind, with KindElement
// as the default arm for ordinary elements.
type Kind int

const (
	KindElement Kind = iota // any ordinary element tag
	KindDoctype             // *DOC* — document marker, full reset
	KindRoot                // HTML — document root, wholesale replace
	KindHead                // HEAD — base-element injection
	KindText                // *TXT* — character data
	KindObject              // OBJECT — never reconstructed
	KindFrame               // IFRAME — sized placeholder only
	KindImage               // IMG — placeholder substitution
	KindIgnored             // *IGNORE* — opaque subtree marker
	KindStyle               // STYLE — css rule children
)

// KindOf maps a record tag to its Kind. Tag comparison is case-insensitive
// for element names; pseudo-tags are matched verbatim.
func KindOf(tag string) Kind {
	switch tag {
	case layout.TagDoctype:
		return KindDoctype
	case layout.TagText:
		return KindText
	case layout.TagIgnore:
		return KindIgnored
	}
	switch strings.ToUpper(tag) {
	case "HTML":
		return KindRoot
	case "HEAD":
		return KindHead
	case "OBJECT":
		return KindObject
	case "IFRAME":
		return KindFrame
	case "IMG":
		return KindImage
	case "STYLE":
		return KindStyle
	}
	return KindElement
}
