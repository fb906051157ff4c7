// Package authz contains the authorization evaluator: a resolved identity
// plus pure predicates over its role and permission sets. No I/O happens
// here; resolving the identity from a bearer token is the job of the token
// authority and the HTTP middlewares.
package authz

import "github.com/dropDatabas3/authgate/internal/domain/repository"

// Identity es la identidad autenticada de un request. Se construye una vez
// (al validar el bearer token) y se pasa explícitamente; nunca se muta.
type Identity struct {
	UserID      string
	Email       string
	Roles       []string
	Permissions []string
}

// Flatten computes the effective permission set of a user:
// unique(union(permissions of every role, direct grants)).
// Order is first-seen; uniqueness is mandatory (a permission present via a
// role and a direct grant counts once).
func Flatten(roles []repository.Role, direct []string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(p string) {
		if p == "" {
			return
		}
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	for _, r := range roles {
		for _, p := range r.Permissions {
			add(p)
		}
	}
	for _, p := range direct {
		add(p)
	}
	return out
}

// RoleNames extrae los nombres de una lista de roles.
func RoleNames(roles []repository.Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, r.Name)
	}
	return out
}
