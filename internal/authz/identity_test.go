package authz

import (
	"reflect"
	"testing"

	"github.com/dropDatabas3/authgate/internal/domain/repository"
)

func TestFlatten_UnionWithoutDuplicates(t *testing.T) {
	roles := []repository.Role{
		{Name: "editor", Permissions: []string{"posts:read", "posts:write"}},
		{Name: "reviewer", Permissions: []string{"posts:read", "reviews:write"}},
	}
	direct := []string{"posts:write", "exports:run", ""}

	got := Flatten(roles, direct)
	want := []string{"posts:read", "posts:write", "reviews:write", "exports:run"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Flatten = %v, want %v", got, want)
	}
}

func TestFlatten_Empty(t *testing.T) {
	if got := Flatten(nil, nil); len(got) != 0 {
		t.Fatalf("Flatten(nil, nil) = %v, want empty", got)
	}
}

func TestRoleNames(t *testing.T) {
	roles := []repository.Role{{Name: "admin"}, {Name: "user"}}
	got := RoleNames(roles)
	if !reflect.DeepEqual(got, []string{"admin", "user"}) {
		t.Fatalf("RoleNames = %v", got)
	}
}

func TestPredicates(t *testing.T) {
	id := Identity{
		UserID:      "u1",
		Roles:       []string{"user", "editor"},
		Permissions: []string{"posts:read", "posts:write"},
	}

	if !id.HasAnyRole("admin", "editor") {
		t.Fatalf("HasAnyRole should match editor")
	}
	if id.HasAnyRole("admin") {
		t.Fatalf("HasAnyRole should not match admin")
	}
	if id.HasAnyRole() {
		t.Fatalf("HasAnyRole() with no args should be false")
	}

	if !id.HasAnyPermission("posts:write") {
		t.Fatalf("HasAnyPermission should match posts:write")
	}
	if id.HasAnyPermission("users:write") {
		t.Fatalf("HasAnyPermission should not match users:write")
	}

	if !id.HasAllPermissions("posts:read", "posts:write") {
		t.Fatalf("HasAllPermissions should hold")
	}
	if id.HasAllPermissions("posts:read", "users:write") {
		t.Fatalf("HasAllPermissions should fail on missing permission")
	}
	if !id.HasAllPermissions() {
		t.Fatalf("HasAllPermissions() with no args should be true")
	}
}

func TestOwnerOrPermission(t *testing.T) {
	id := Identity{UserID: "u1", Permissions: []string{"users:write"}}

	if !id.OwnerOrPermission("u1") {
		t.Fatalf("owner should be admitted without permissions")
	}
	if !id.OwnerOrPermission("u2", "users:write") {
		t.Fatalf("non-owner with permission should be admitted")
	}
	if id.OwnerOrPermission("u2", "users:read") {
		t.Fatalf("non-owner without permission should be rejected")
	}
	if id.OwnerOrPermission("", "users:read") {
		t.Fatalf("empty owner must not match")
	}
}

func TestSelfOrRole(t *testing.T) {
	id := Identity{UserID: "u1", Roles: []string{"support"}}

	if !id.SelfOrRole("u1") {
		t.Fatalf("self should be admitted")
	}
	if !id.SelfOrRole("u2", "support") {
		t.Fatalf("role fallback should admit")
	}
	if id.SelfOrRole("u2", "admin") {
		t.Fatalf("no self, no role: must reject")
	}
}
