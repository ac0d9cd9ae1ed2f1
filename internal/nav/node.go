// Package nav builds the side menu for a role and decides which entries are
// shown.
package nav

// Node is one menu entry. A Node with Children is a group and is not
// navigable itself.
type Node struct {
	Title    string
	Path     string
	Icon     string
	Subject  string
	Action   string
	Auth     *bool
	Children []Node

	// Active is set by MarkActive for rendering only.
	Active bool
}

func (n Node) IsGroup() bool {
	return len(n.Children) > 0 || n.Path == ""
}

// RequiresAuth reports whether the entry is only shown to signed-in
// browsers. An unset Auth means true.
func (n Node) RequiresAuth() bool {
	return n.Auth == nil || *n.Auth
}

// Public returns a pointer to false, for nodes shown regardless of auth.
func Public() *bool {
	f := false
	return &f
}

// MarkActive returns a copy of nodes with Active set on every entry whose
// Path equals path and on the groups containing it.
func MarkActive(nodes []Node, path string) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		n.Children = MarkActive(n.Children, path)
		n.Active = n.Path != "" && n.Path == path
		for _, c := range n.Children {
			if c.Active {
				n.Active = true
			}
		}
		out[i] = n
	}
	return out
}
