package permission

// SuperAdminRole is the sentinel role name whose holders pass every
// permission check regardless of the permissions attached to their roles.
const SuperAdminRole = "super_admin"

// Permission is a single grantable capability. Only Name participates in
// evaluation; Label and Group are display metadata owned by the views.
type Permission struct {
	Name  string `json:"name"`
	Label string `json:"label,omitempty"`
	Group string `json:"group,omitempty"`
}

// Role is a named set of permissions.
type Role struct {
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions,omitempty"`
}

// Identity is the authenticated principal as reported by the login or
// profile endpoint. A zero Identity holds no roles and no permissions.
type Identity struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
	Roles    []Role `json:"roles,omitempty"`
}

// IsSuperAdmin reports whether the identity holds the super-admin sentinel
// role by name.
func IsSuperAdmin(id Identity) bool {
	for _, role := range id.Roles {
		if role.Name == SuperAdminRole {
			return true
		}
	}
	return false
}

// Flatten returns the union of permission names across all of the identity's
// roles. Duplicates across roles collapse into one entry.
func Flatten(id Identity) map[string]struct{} {
	names := make(map[string]struct{})
	for _, role := range id.Roles {
		for _, perm := range role.Permissions {
			if perm.Name == "" {
				continue
			}
			names[perm.Name] = struct{}{}
		}
	}
	return names
}

// Has reports whether the identity holds the named permission. Super-admins
// hold every permission, including names absent from any assigned role.
func Has(id Identity, name string) bool {
	if IsSuperAdmin(id) {
		return true
	}
	for _, role := range id.Roles {
		for _, perm := range role.Permissions {
			if perm.Name == name {
				return true
			}
		}
	}
	return false
}

// HasAny reports whether the identity holds at least one of the named
// permissions. An empty name list is never satisfied.
func HasAny(id Identity, names ...string) bool {
	if len(names) == 0 {
		return false
	}
	if IsSuperAdmin(id) {
		return true
	}
	flat := Flatten(id)
	for _, name := range names {
		if _, ok := flat[name]; ok {
			return true
		}
	}
	return false
}
