package constants

// Context and header keys shared between middleware and handlers.
const (
	ContextKeyUser      = "user"
	HeaderAuthorization = "Authorization"
	ResponseError       = "error"
	FieldMessage        = "message"
)

// AdminRoleName is the seeded administrator role.
const AdminRoleName = "Administrator"

// IsAdminRole reports whether the role name grants administrative access.
func IsAdminRole(roleName string) bool {
	return roleName == AdminRoleName
}
