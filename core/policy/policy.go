// Package policy maps dashboard roles to the capabilities they grant.
//
// It is the only place that looks at a role: views and API handlers ask for a
// Capability instead of comparing roles. Unknown roles and unknown capability
// names grant nothing.
package policy

import (
	"sort"

	"github.com/masomo/dashboard/core"
	"github.com/masomo/dashboard/core/identity"
)

type Capability string

const (
	AccessAdminPanel Capability = "access_admin_panel"
	ManageSchedule   Capability = "manage_schedule"
	ManageNews       Capability = "manage_news"
	RecordAttendance Capability = "record_attendance"
	ManageUsers      Capability = "manage_users"
	ViewAnalytics    Capability = "view_analytics"
	ViewDashboard    Capability = "view_dashboard"
	EditOwnProfile   Capability = "edit_own_profile"
)

var grants = map[identity.Role]map[Capability]bool{
	identity.RoleAdmin: {
		AccessAdminPanel: true,
		ManageSchedule:   true,
		ManageNews:       true,
		RecordAttendance: true,
		ManageUsers:      true,
		ViewAnalytics:    true,
		ViewDashboard:    true,
		EditOwnProfile:   true,
	},
	identity.RoleTeacher: {
		ManageSchedule:   true,
		ManageNews:       true,
		RecordAttendance: true,
		ViewAnalytics:    true,
		ViewDashboard:    true,
		EditOwnProfile:   true,
	},
	identity.RoleStudent: {
		ViewDashboard:  true,
		EditOwnProfile: true,
	},
}

// All lists every known capability in a stable order.
var All = []Capability{
	AccessAdminPanel,
	ManageSchedule,
	ManageNews,
	RecordAttendance,
	ManageUsers,
	ViewAnalytics,
	ViewDashboard,
	EditOwnProfile,
}

// ParseCapability maps name onto a known Capability.
func ParseCapability(name string) (Capability, bool) {
	c := Capability(core.CleanString(name, true /* lower */))
	for _, known := range All {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// Can reports whether role grants capability.
func Can(role identity.Role, capability Capability) bool {
	return grants[role][capability]
}

// Capabilities returns the sorted capability set of role. Never nil.
func Capabilities(role identity.Role) []Capability {
	caps := make([]Capability, 0, len(grants[role]))
	for c, ok := range grants[role] {
		if ok {
			caps = append(caps, c)
		}
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i] < caps[j] })
	return caps
}

func CanAccessAdminPanel(role identity.Role) bool { return Can(role, AccessAdminPanel) }

func CanManageSchedule(role identity.Role) bool { return Can(role, ManageSchedule) }

func CanManageNews(role identity.Role) bool { return Can(role, ManageNews) }

func CanRecordAttendance(role identity.Role) bool { return Can(role, RecordAttendance) }
