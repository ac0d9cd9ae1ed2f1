package nav

import "github.com/noveleno/portal/internal/session"

// CanViewNavGroup reports whether a group and its children are rendered. A
// group is shown when it has at least one visible descendant leaf; a nested
// group, whether it has no path or an empty non-nil Children slice,
// contributes none. The tree is a finite static structure, so the recursion
// terminates.
func CanViewNavGroup(n Node, role session.Role, p Policy) bool {
	if !n.RequiresAuth() {
		return true
	}
	if len(n.Children) == 0 || !hasVisibleLeaf(n.Children, role, p) {
		return false
	}
	if n.Subject != "" && n.Action != "" {
		return p.Allowed(role, n.Subject, n.Action)
	}
	return true
}

// CanViewNavLink reports whether a single link is rendered.
func CanViewNavLink(n Node, role session.Role, p Policy) bool {
	if !n.RequiresAuth() {
		return true
	}
	return p.Allowed(role, n.Subject, n.Action)
}

func hasVisibleLeaf(nodes []Node, role session.Role, p Policy) bool {
	for _, n := range nodes {
		if n.Children != nil || n.IsGroup() {
			if hasVisibleLeaf(n.Children, role, p) {
				return true
			}
			continue
		}
		if CanViewNavLink(n, role, p) {
			return true
		}
	}
	return false
}

// Visible returns the entries of nodes that pass the filters, with groups
// pruned to their visible children. nodes is not modified.
func Visible(nodes []Node, role session.Role, p Policy) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if n.IsGroup() {
			if !CanViewNavGroup(n, role, p) {
				continue
			}
			if n.RequiresAuth() {
				n.Children = Visible(n.Children, role, p)
			}
			out = append(out, n)
			continue
		}
		if CanViewNavLink(n, role, p) {
			out = append(out, n)
		}
	}
	return out
}
