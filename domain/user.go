package domain

// Role is the authorization role assigned to a user by the backend.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleTeacher    Role = "teacher"
	RoleStudent    Role = "student"
	RoleParent     Role = "parent"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleTeacher, RoleStudent, RoleParent:
		return true
	}
	return false
}

// User represents the authenticated identity held by the session.
type User struct {
	ID            int64  `json:"id" validate:"gt=0"`
	Email         string `json:"email" validate:"omitempty,email"`
	Username      string `json:"username" validate:"required"`
	FullName      string `json:"full_name" validate:"required"`
	Role          Role   `json:"role" validate:"required,oneof=super_admin admin teacher student parent"`
	InstitutionID *int64 `json:"institution_id,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u != nil && (u.Role == RoleSuperAdmin || u.Role == RoleAdmin)
}

// CanManageDirectory gates the groups, teachers and classrooms screens.
func (u *User) CanManageDirectory() bool {
	return u.IsAdmin()
}

// CanReviewRequests gates approving or rejecting change requests.
func (u *User) CanReviewRequests() bool {
	return u.IsAdmin()
}

func (u *User) CanSubmitRequests() bool {
	return u.IsAdmin() || (u != nil && u.Role == RoleTeacher)
}

// CanBuildSchedule gates the schedule builder; students and parents only read.
func (u *User) CanBuildSchedule() bool {
	return u != nil && u.Role != RoleStudent && u.Role != RoleParent
}
