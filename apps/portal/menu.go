package main

import (
	"github.com/masomo/dashboard/core/policy"
	"github.com/masomo/dashboard/core/session"
)

type view struct {
	name       string
	capability policy.Capability
}

// views are the dashboard sections in menu order.
var views = []view{
	{name: "Dashboard", capability: policy.ViewDashboard},
	{name: "Analytics", capability: policy.ViewAnalytics},
	{name: "Schedule", capability: policy.ManageSchedule},
	{name: "News", capability: policy.ManageNews},
	{name: "Attendance", capability: policy.RecordAttendance},
	{name: "Users", capability: policy.ManageUsers},
	{name: "Admin panel", capability: policy.AccessAdminPanel},
	{name: "Profile", capability: policy.EditOwnProfile},
}

// visibleViews decides what the dashboard renders for the current session.
func visibleViews(mgr *session.Manager) []string {
	sess := mgr.Session()
	switch {
	case sess.Loading:
		return []string{"Loading..."}
	case !sess.Authenticated:
		return []string{"Login"}
	}

	names := make([]string, 0, len(views))
	for _, v := range views {
		if mgr.HasCapability(v.capability) {
			names = append(names, v.name)
		}
	}
	return names
}
