package models

// Role represents user roles in the system
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleOperator Role = "operator"
	RoleViewer   Role = "viewer"
)

// Actions checked by the API.
const (
	ActionViewMaintenance   = "view_maintenance"
	ActionUpdateMaintenance = "update_maintenance"
	ActionCreateMaintenance = "create_maintenance"
	ActionRunCheck          = "run_check"
	ActionManageSettings    = "manage_settings"
)

// Claims represents JWT claims
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Exp      int64  `json:"exp"`
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleOperator, RoleViewer:
		return true
	default:
		return false
	}
}

// HasPermission checks if a role may perform a specific action
func (r Role) HasPermission(action string) bool {
	switch r {
	case RoleAdmin, RoleManager:
		return true
	case RoleOperator:
		return action == ActionViewMaintenance || action == ActionUpdateMaintenance ||
			action == ActionCreateMaintenance || action == ActionRunCheck
	case RoleViewer:
		return action == ActionViewMaintenance
	default:
		return false
	}
}
