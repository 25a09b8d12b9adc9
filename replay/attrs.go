package replay

import (
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// applyAttributes synchronizes the record's attribute set onto n. Each pair
// is applied in isolation: a name the surface cannot serialize is logged and
// skipped without blocking the remaining pairs. The "value" attribute is
// additionally pushed through the form-control path, since a control's live
// value does not round-trip through the generic attribute alone.
func applyAttributes(logger *slog.Logger, n *html.Node, attrs map[string]string) {
	for name, value := range attrs {
		if err := setAttribute(n, name, value); err != nil {
			logger.Warn("replay: attribute skipped", "name", name, "error", err)
			continue
		}
		if name == "value" {
			applyControlValue(n, value)
		}
	}
}

// clearAttributes drops every attribute on n. Update records carry the full
// replacement set, so sync is clear-then-apply, never a merge.
func clearAttributes(n *html.Node) {
	n.Attr = nil
}

// setAttribute sets or replaces a single attribute. Names the serializer
// would reject (spaces, quotes, control characters) are refused here, at the
// narrowest scope.
func setAttribute(n *html.Node, name, value string) error {
	if name == "" {
		return fmt.Errorf("empty attribute name")
	}
	if strings.ContainsAny(name, " \t\n\r\"'>/=") {
		return fmt.Errorf("unserializable attribute name %q", name)
	}
	for i := range n.Attr {
		if n.Attr[i].Key == name && n.Attr[i].Namespace == "" {
			n.Attr[i].Val = value
			return nil
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
	return nil
}

// attributeValue returns the value of an attribute on n, or "".
func attributeValue(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name && a.Namespace == "" {
			return a.Val
		}
	}
	return ""
}

// applyControlValue mirrors the "value" property onto the surface for
// controls where the attribute is not the live value. On this surface only
// textarea needs it: its value serializes as its text content.
func applyControlValue(n *html.Node, value string) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Textarea {
		removeChildren(n)
		if value != "" {
			n.AppendChild(createText(value))
		}
	}
}

// setStyleProps merges CSS declarations into n's style attribute, overriding
// properties that are already declared.
func setStyleProps(n *html.Node, props ...[2]string) {
	existing := attributeValue(n, "style")
	var decls []string
	seen := make(map[string]int)
	for _, d := range strings.Split(existing, ";") {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		if k, _, ok := strings.Cut(d, ":"); ok {
			seen[strings.TrimSpace(strings.ToLower(k))] = len(decls)
		}
		decls = append(decls, d)
	}
	for _, p := range props {
		decl := p[0] + ": " + p[1]
		if i, ok := seen[p[0]]; ok {
			decls[i] = decl
		} else {
			seen[p[0]] = len(decls)
			decls = append(decls, decl)
		}
	}
	setAttribute(n, "style", strings.Join(decls, "; "))
}
