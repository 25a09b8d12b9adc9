package replay

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const svgNamespace = "svg"

// createElement returns a new detached element node for tag. An svg tag, or
// any tag whose intended parent sits inside an svg subtree, is created in
// the SVG namespace — the namespace of a node is not deducible from its own
// tag alone, so the ancestry walk is required for namespace-correct
// children.
func createElement(tag string, parent *html.Node) *html.Node {
	name := strings.ToLower(tag)
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     name,
		DataAtom: atom.Lookup([]byte(name)),
	}
	if name == "svg" || inSVGSubtree(parent) {
		n.Namespace = svgNamespace
	}
	return n
}

// createText returns a new detached text node.
func createText(content string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: content}
}

// inSVGSubtree walks upward from n until the tree root, reporting whether an
// svg-tagged ancestor is crossed first.
func inSVGSubtree(n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && (n.DataAtom == atom.Svg || n.Namespace == svgNamespace) {
			return true
		}
	}
	return false
}
