package rbac

// Permissions are "<area>:<action>". A trailing * matches any action in the area.
var RolePermissions = map[string][]string{
	"user": {
		"tests:*",
		"attempts:*",
		"session:*",
		"drafts:*",
		"generate:run",
		"analytics:view",
		"sync:*",
		"account:change_password",
	},
	"admin": {
		"*", // everything
	},
}
