package authz

// hasAny reporta si hay al menos un elemento en común entre dos slices.
func hasAny(haystack, needles []string) bool {
	if len(haystack) == 0 || len(needles) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(haystack))
	for _, v := range haystack {
		set[v] = struct{}{}
	}
	for _, n := range needles {
		if _, ok := set[n]; ok {
			return true
		}
	}
	return false
}

// HasAnyRole reporta si la identidad tiene alguno de los roles listados.
func (id Identity) HasAnyRole(roles ...string) bool {
	return hasAny(id.Roles, roles)
}

// HasAnyPermission reporta si la identidad tiene alguno de los permisos.
func (id Identity) HasAnyPermission(perms ...string) bool {
	return hasAny(id.Permissions, perms)
}

// HasAllPermissions reporta si la identidad tiene TODOS los permisos.
func (id Identity) HasAllPermissions(perms ...string) bool {
	if len(perms) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(id.Permissions))
	for _, p := range id.Permissions {
		set[p] = struct{}{}
	}
	for _, p := range perms {
		if _, ok := set[p]; !ok {
			return false
		}
	}
	return true
}

// OwnerOrPermission admite si la identidad es dueña del recurso, o en su
// defecto si tiene alguno de los permisos listados.
func (id Identity) OwnerOrPermission(resourceOwnerID string, perms ...string) bool {
	if resourceOwnerID != "" && id.UserID == resourceOwnerID {
		return true
	}
	return id.HasAnyPermission(perms...)
}

// SelfOrRole admite si la identidad es el propio usuario del path, o en su
// defecto si tiene alguno de los roles listados.
func (id Identity) SelfOrRole(pathUserID string, roles ...string) bool {
	if pathUserID != "" && id.UserID == pathUserID {
		return true
	}
	return id.HasAnyRole(roles...)
}
