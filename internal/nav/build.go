package nav

import (
	"fmt"

	"github.com/noveleno/portal/internal/session"
)

// Build returns the menu for role. It is a pure function of role; every call
// with the same role returns an identical tree. An unset or unrecognized role
// gets the staff menu without the Superadmin entry.
func Build(role session.Role) []Node {
	switch role = session.ParseRole(string(role)); role {
	case session.RoleUser:
		return residentMenu()
	case session.RoleAdmin, session.RoleUnset:
		return staffMenu(false)
	case session.RoleSuperadmin:
		return staffMenu(true)
	default:
		panic(fmt.Sprintf("nav: unhandled role %q", role))
	}
}

func residentMenu() []Node {
	return []Node{
		{Title: "Home", Path: "/home", Icon: "tabler:smart-home", Subject: "General Home"},
		{Title: "Menu", Path: "/user-menu", Icon: "tabler:menu", Subject: "Menu"},
		{Title: "Messages", Path: "/chat", Icon: "tabler:message", Subject: "Chat"},
		{
			Title:   "News Management",
			Icon:    "tabler:news",
			Subject: "News",
			Children: []Node{
				{Title: "Share Report", Path: "/share-report", Icon: "tabler:news", Subject: "News"},
				{Title: "News Feed", Path: "/news/news-feed", Icon: "tabler:news", Subject: "News"},
			},
		},
		{Title: "Calamity Emergency", Path: "/calamity-emergency", Icon: "tabler:ambulance", Subject: "News"},
		{Title: "Emergency Hotlines", Path: "/emergency-hotlines", Icon: "tabler:phone", Subject: "Emergency Hotlines"},
	}
}

func staffMenu(superadmin bool) []Node {
	nodes := []Node{
		{Title: "Dashboard", Path: "/home", Icon: "tabler:smart-home", Subject: "General Home"},
		{Title: "Menu", Path: "/menu", Icon: "tabler:menu", Subject: "Menu"},
		{Title: "Messages", Path: "/chat", Icon: "tabler:message", Subject: "Chat"},
		{Title: "Post Alert", Path: "/alert", Icon: "tabler:alert-circle", Subject: "Alerts"},
		{Title: "Users Pending", Path: "/users", Icon: "tabler:users", Subject: "User Management"},
	}
	if superadmin {
		nodes = append(nodes, Node{Title: "Admin Management", Path: "/admin-management", Icon: "tabler:users", Subject: "Admin Management"})
	}
	return append(nodes,
		Node{Title: "Emergency Contact", Path: "/manage-contact", Icon: "tabler:phone", Subject: "Emergency"},
		Node{Title: "Manage Map", Path: "/manage-map", Icon: "tabler:map", Subject: "Alerts"},
		Node{Title: "Manage Evacuation", Path: "/manage-evacuation", Icon: "tabler:map", Subject: "Alerts"},
		Node{
			Title:   "News Management",
			Icon:    "tabler:news",
			Subject: "News",
			Children: []Node{
				{Title: "Post News", Path: "/news", Icon: "tabler:news", Subject: "News"},
				{Title: "News Feed", Path: "/news/news-feed", Icon: "tabler:news", Subject: "News"},
				{Title: "Report Approval", Path: "/news/approval", Icon: "tabler:news", Subject: "News"},
			},
		},
	)
}
