package models

import "time"

// UserRole represents the staff roles known to the tenant.
type UserRole string

const (
	RoleDevAdmin     UserRole = "DEV_ADMIN"
	RoleCompanyAdmin UserRole = "COMPANY_ADMIN"
	RoleManager      UserRole = "MANAGER"
	RoleEmployee     UserRole = "EMPLOYEE"
	RoleHR           UserRole = "HR"
	RoleSales        UserRole = "SALES"
	RoleAccounts     UserRole = "ACCOUNTS"
	RoleCounselor    UserRole = "COUNSELOR"
	RoleOperations   UserRole = "OPERATIONS"
	RoleITSupport    UserRole = "IT_SUPPORT"
	RoleTeamLeader   UserRole = "TEAM_LEADER"
)

// AdminRoles hold the admin capability: they review approvals and moderate comments.
var AdminRoles = []UserRole{RoleDevAdmin, RoleCompanyAdmin}

// IsAdmin reports whether the role carries the admin capability.
func (r UserRole) IsAdmin() bool {
	return r == RoleDevAdmin || r == RoleCompanyAdmin
}

// User represents a staff member stored in the users table.
type User struct {
	ID        string    `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"full_name"`
	Role      UserRole  `db:"role" json:"role"`
	CompanyID string    `db:"company_id" json:"company_id"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// DisplayName prefers the full name and falls back to the username.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
