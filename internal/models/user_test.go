package models

import "testing"

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		expected bool
	}{
		{"admin role", RoleAdmin, true},
		{"user role", RoleUser, true},
		{"legacy viewer role", "viewer", false},
		{"empty role", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidRole(tt.role)
			if result != tt.expected {
				t.Errorf("IsValidRole(%s) = %v, want %v", tt.role, result, tt.expected)
			}
		})
	}
}

func TestUser_HasPermission(t *testing.T) {
	admin := &User{Role: RoleAdmin}
	user := &User{Role: RoleUser}
	unknown := &User{Role: "guest"}

	tests := []struct {
		name     string
		user     *User
		action   string
		expected bool
	}{
		{"admin can send announcements", admin, PermSendAnnouncements, true},
		{"admin can view all tickets", admin, PermViewAllTickets, true},
		{"admin can manage own data", admin, PermManageOwnData, true},

		{"user can manage own data", user, PermManageOwnData, true},
		{"user cannot send announcements", user, PermSendAnnouncements, false},
		{"user cannot view all tickets", user, PermViewAllTickets, false},

		{"unknown role has nothing", unknown, PermManageOwnData, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.user.HasPermission(tt.action)
			if result != tt.expected {
				t.Errorf("User with role %s HasPermission(%s) = %v, want %v",
					tt.user.Role, tt.action, result, tt.expected)
			}
		})
	}
}
