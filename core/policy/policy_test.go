package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/masomo/dashboard/core/identity"
)

func TestNamedChecks(t *testing.T) {
	roles := []identity.Role{identity.RoleAdmin, identity.RoleTeacher, identity.RoleStudent, "", "superuser", "Admin"}
	for _, r := range roles {
		t.Run(string(r), func(t *testing.T) {
			isAdmin := r == identity.RoleAdmin
			isStaff := r == identity.RoleAdmin || r == identity.RoleTeacher

			if got := CanAccessAdminPanel(r); got != isAdmin {
				t.Errorf("CanAccessAdminPanel(%q) = %v; want %v", r, got, isAdmin)
			}
			if got := CanManageSchedule(r); got != isStaff {
				t.Errorf("CanManageSchedule(%q) = %v; want %v", r, got, isStaff)
			}
			if got := CanManageNews(r); got != isStaff {
				t.Errorf("CanManageNews(%q) = %v; want %v", r, got, isStaff)
			}
			if got := CanRecordAttendance(r); got != isStaff {
				t.Errorf("CanRecordAttendance(%q) = %v; want %v", r, got, isStaff)
			}
		})
	}
}

func TestCapabilities(t *testing.T) {
	tests := []struct {
		name string
		role identity.Role
		want []Capability
	}{
		{name: "admin", role: identity.RoleAdmin, want: All},
		{name: "teacher", role: identity.RoleTeacher, want: []Capability{ManageSchedule, ManageNews, RecordAttendance, ViewAnalytics, ViewDashboard, EditOwnProfile}},
		{name: "student", role: identity.RoleStudent, want: []Capability{ViewDashboard, EditOwnProfile}},
		{name: "unknown", role: "parent", want: []Capability{}},
		{name: "empty", role: "", want: []Capability{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Capabilities(tt.role)
			assert.NotNil(t, got)
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestCanUnknownCapability(t *testing.T) {
	assert.False(t, Can(identity.RoleAdmin, "delete_everything"))
	assert.False(t, Can("", ViewDashboard))
}

func TestParseCapability(t *testing.T) {
	tests := []struct {
		in     string
		want   Capability
		wantOk bool
	}{
		{in: "manage_news", want: ManageNews, wantOk: true},
		{in: "  Access_Admin_Panel ", want: AccessAdminPanel, wantOk: true},
		{in: "fly", wantOk: false},
		{in: "", wantOk: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseCapability(tt.in)
			if got != tt.want || ok != tt.wantOk {
				t.Errorf("ParseCapability(%q) = (%q, %v); want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOk)
			}
		})
	}
}
