package models

import (
	"testing"
)

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		expected bool
	}{
		{"admin role", RoleAdmin, true},
		{"manager role", RoleManager, true},
		{"operator role", RoleOperator, true},
		{"viewer role", RoleViewer, true},
		{"invalid role", "invalid", false},
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

func TestRole_HasPermission(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		action   string
		expected bool
	}{
		{"admin can manage settings", RoleAdmin, ActionManageSettings, true},
		{"admin can run check", RoleAdmin, ActionRunCheck, true},
		{"manager can manage settings", RoleManager, ActionManageSettings, true},
		{"manager can update maintenance", RoleManager, ActionUpdateMaintenance, true},

		{"operator can view maintenance", RoleOperator, ActionViewMaintenance, true},
		{"operator can update maintenance", RoleOperator, ActionUpdateMaintenance, true},
		{"operator can create maintenance", RoleOperator, ActionCreateMaintenance, true},
		{"operator can run check", RoleOperator, ActionRunCheck, true},
		{"operator cannot manage settings", RoleOperator, ActionManageSettings, false},

		{"viewer can view maintenance", RoleViewer, ActionViewMaintenance, true},
		{"viewer cannot update maintenance", RoleViewer, ActionUpdateMaintenance, false},
		{"viewer cannot run check", RoleViewer, ActionRunCheck, false},

		{"unknown role has nothing", Role("guest"), ActionViewMaintenance, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.role.HasPermission(tt.action)
			if result != tt.expected {
				t.Errorf("Role %s HasPermission(%s) = %v, want %v",
					tt.role, tt.action, result, tt.expected)
			}
		})
	}
}
