package auth

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/dropDatabas3/authgate/internal/domain/repository"
)

// Fakes en memoria de los repositorios. Implementan las interfaces
// completas para poder armar un Authority real encima.

type memUsers struct {
	mu   sync.Mutex
	seq  int
	byID map[string]*repository.User
	vtok map[string]string // verification token -> userID
	vexp map[string]time.Time
	rtok map[string]string // reset token -> userID
	rexp map[string]time.Time
}

func newMemUsers() *memUsers {
	return &memUsers{
		byID: make(map[string]*repository.User),
		vtok: make(map[string]string),
		vexp: make(map[string]time.Time),
		rtok: make(map[string]string),
		rexp: make(map[string]time.Time),
	}
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*repository.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, userID string) (*repository.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByProvider(_ context.Context, provider, providerID string) (*repository.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		switch provider {
		case "google":
			if u.GoogleID != nil && *u.GoogleID == providerID {
				cp := *u
				return &cp, nil
			}
		case "github":
			if u.GitHubID != nil && *u.GitHubID == providerID {
				cp := *u
				return &cp, nil
			}
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) Create(_ context.Context, in repository.CreateUserInput) (*repository.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == in.Email {
			return nil, repository.ErrConflict
		}
	}
	m.seq++
	u := &repository.User{
		ID:            "u-" + strconv.Itoa(m.seq),
		Email:         in.Email,
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		Avatar:        in.Avatar,
		Active:        true,
		EmailVerified: in.EmailVerified,
		CreatedAt:     time.Now().UTC(),
	}
	if in.PasswordHash != "" {
		h := in.PasswordHash
		u.PasswordHash = &h
	}
	if in.GoogleID != "" {
		g := in.GoogleID
		u.GoogleID = &g
	}
	if in.GitHubID != "" {
		g := in.GitHubID
		u.GitHubID = &g
	}
	m.byID[u.ID] = u
	cp := *u
	return &cp, nil
}

func (m *memUsers) UpdateProfile(_ context.Context, userID string, in repository.UpdateProfileInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return repository.ErrNotFound
	}
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		u.LastName = *in.LastName
	}
	if in.Avatar != nil {
		u.Avatar = *in.Avatar
	}
	return nil
}

func (m *memUsers) SetProviderID(_ context.Context, userID, provider, providerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return repository.ErrNotFound
	}
	id := providerID
	switch provider {
	case "google":
		u.GoogleID = &id
	case "github":
		u.GitHubID = &id
	default:
		return repository.ErrInvalidInput
	}
	return nil
}

func (m *memUsers) SetActive(_ context.Context, userID string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Active = active
	return nil
}

func (m *memUsers) SetEmailVerified(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.EmailVerified = true
	for tok, id := range m.vtok {
		if id == userID {
			delete(m.vtok, tok)
			delete(m.vexp, tok)
		}
	}
	return nil
}

func (m *memUsers) StampLastLogin(_ context.Context, userID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.LastLoginAt = &at
	return nil
}

func (m *memUsers) UpdatePasswordHash(_ context.Context, userID, newHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = &newHash
	return nil
}

func (m *memUsers) SetVerificationToken(_ context.Context, userID, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[userID]; !ok {
		return repository.ErrNotFound
	}
	m.vtok[token] = userID
	m.vexp[token] = expiresAt
	return nil
}

func (m *memUsers) GetByVerificationToken(_ context.Context, token string, now time.Time) (*repository.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	userID, ok := m.vtok[token]
	if !ok || !now.Before(m.vexp[token]) {
		return nil, repository.ErrNotFound
	}
	cp := *m.byID[userID]
	return &cp, nil
}

func (m *memUsers) SetResetToken(_ context.Context, userID, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[userID]; !ok {
		return repository.ErrNotFound
	}
	m.rtok[token] = userID
	m.rexp[token] = expiresAt
	return nil
}

func (m *memUsers) GetByResetToken(_ context.Context, token string, now time.Time) (*repository.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	userID, ok := m.rtok[token]
	if !ok || !now.Before(m.rexp[token]) {
		return nil, repository.ErrNotFound
	}
	cp := *m.byID[userID]
	return &cp, nil
}

func (m *memUsers) ClearResetToken(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for tok, id := range m.rtok {
		if id == userID {
			delete(m.rtok, tok)
			delete(m.rexp, tok)
		}
	}
	return nil
}

func (m *memUsers) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[userID]; !ok {
		return repository.ErrNotFound
	}
	delete(m.byID, userID)
	return nil
}

type memRBAC struct {
	mu        sync.Mutex
	seq       int
	roles     map[string]*repository.Role // por ID
	perms     map[string]*repository.Permission
	userRoles map[string]map[string]bool // userID -> roleID -> true
	userPerms map[string][]string
}

func newMemRBAC() *memRBAC {
	return &memRBAC{
		roles:     make(map[string]*repository.Role),
		perms:     make(map[string]*repository.Permission),
		userRoles: make(map[string]map[string]bool),
		userPerms: make(map[string][]string),
	}
}

func (m *memRBAC) GetUserRoles(_ context.Context, userID string) ([]repository.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.Role
	for roleID := range m.userRoles[userID] {
		if r, ok := m.roles[roleID]; ok {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memRBAC) GetUserDirectPermissions(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.userPerms[userID]...), nil
}

func (m *memRBAC) GetDefaultRole(_ context.Context) (*repository.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var def *repository.Role
	for _, r := range m.roles {
		if !r.IsDefault {
			continue
		}
		if def == nil || r.CreatedAt.Before(def.CreatedAt) {
			def = r
		}
	}
	if def == nil {
		return nil, repository.ErrNotFound
	}
	cp := *def
	return &cp, nil
}

func (m *memRBAC) AssignRole(_ context.Context, userID, roleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roles[roleID]; !ok {
		return repository.ErrNotFound
	}
	if m.userRoles[userID] == nil {
		m.userRoles[userID] = make(map[string]bool)
	}
	m.userRoles[userID][roleID] = true
	return nil
}

func (m *memRBAC) RemoveRole(_ context.Context, userID, roleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.userRoles[userID], roleID)
	return nil
}

func (m *memRBAC) GrantPermission(_ context.Context, userID, permissionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.perms[permissionID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, name := range m.userPerms[userID] {
		if name == p.Name {
			return nil
		}
	}
	m.userPerms[userID] = append(m.userPerms[userID], p.Name)
	return nil
}

func (m *memRBAC) RevokePermission(_ context.Context, userID, permissionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.perms[permissionID]
	if !ok {
		return repository.ErrNotFound
	}
	out := m.userPerms[userID][:0]
	for _, name := range m.userPerms[userID] {
		if name != p.Name {
			out = append(out, name)
		}
	}
	m.userPerms[userID] = out
	return nil
}

func (m *memRBAC) ListRoles(_ context.Context) ([]repository.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.Role
	for _, r := range m.roles {
		out = append(out, *r)
	}
	return out, nil
}

func (m *memRBAC) GetRoleByName(_ context.Context, name string) (*repository.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.roles {
		if r.Name == name {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memRBAC) CreateRole(_ context.Context, in repository.RoleInput) (*repository.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.roles {
		if r.Name == in.Name {
			return nil, repository.ErrConflict
		}
	}
	m.seq++
	r := &repository.Role{
		ID:          "role-" + strconv.Itoa(m.seq),
		Name:        in.Name,
		Description: in.Description,
		IsDefault:   in.IsDefault,
		CreatedAt:   time.Now().UTC(),
	}
	m.roles[r.ID] = r
	cp := *r
	return &cp, nil
}

func (m *memRBAC) DeleteRole(_ context.Context, roleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roles[roleID]; !ok {
		return repository.ErrNotFound
	}
	delete(m.roles, roleID)
	for _, assigned := range m.userRoles {
		delete(assigned, roleID)
	}
	return nil
}

func (m *memRBAC) ListPermissions(_ context.Context) ([]repository.Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.Permission
	for _, p := range m.perms {
		out = append(out, *p)
	}
	return out, nil
}

func (m *memRBAC) CreatePermission(_ context.Context, in repository.PermissionInput) (*repository.Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.perms {
		if p.Name == in.Name {
			return nil, repository.ErrConflict
		}
	}
	m.seq++
	p := &repository.Permission{
		ID:          "perm-" + strconv.Itoa(m.seq),
		Name:        in.Name,
		Resource:    in.Resource,
		Action:      in.Action,
		Description: in.Description,
		CreatedAt:   time.Now().UTC(),
	}
	m.perms[p.ID] = p
	cp := *p
	return &cp, nil
}

func (m *memRBAC) AddPermissionToRole(_ context.Context, roleID, permissionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.roles[roleID]
	if !ok {
		return repository.ErrNotFound
	}
	p, ok := m.perms[permissionID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, name := range r.Permissions {
		if name == p.Name {
			return nil
		}
	}
	r.Permissions = append(r.Permissions, p.Name)
	return nil
}

func (m *memRBAC) RemovePermissionFromRole(_ context.Context, roleID, permissionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.roles[roleID]
	if !ok {
		return repository.ErrNotFound
	}
	p, ok := m.perms[permissionID]
	if !ok {
		return repository.ErrNotFound
	}
	out := r.Permissions[:0]
	for _, name := range r.Permissions {
		if name != p.Name {
			out = append(out, name)
		}
	}
	r.Permissions = out
	return nil
}

type memTokenRepo struct {
	mu   sync.Mutex
	seq  int
	rows map[string]*repository.RefreshToken
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{rows: make(map[string]*repository.RefreshToken)}
}

func (m *memTokenRepo) Create(_ context.Context, in repository.CreateRefreshTokenInput) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	id := "rt-" + strconv.Itoa(m.seq)
	m.rows[id] = &repository.RefreshToken{
		ID:        id,
		UserID:    in.UserID,
		TokenHash: in.TokenHash,
		IssuedAt:  time.Now().UTC(),
		ExpiresAt: in.ExpiresAt,
		UserAgent: in.UserAgent,
		IP:        in.IP,
	}
	return id, nil
}

func (m *memTokenRepo) GetByHash(_ context.Context, hash string) (*repository.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rt := range m.rows {
		if rt.TokenHash == hash {
			cp := *rt
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memTokenRepo) RevokeIfActive(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rt, ok := m.rows[tokenID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if rt.RevokedAt != nil {
		return false, nil
	}
	now := time.Now().UTC()
	rt.RevokedAt = &now
	return true, nil
}

func (m *memTokenRepo) Revoke(ctx context.Context, tokenID string) error {
	_, err := m.RevokeIfActive(ctx, tokenID)
	if err == repository.ErrNotFound {
		return err
	}
	return nil
}

func (m *memTokenRepo) RevokeAllByUser(_ context.Context, userID, exceptID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	now := time.Now().UTC()
	for _, rt := range m.rows {
		if rt.UserID != userID || rt.RevokedAt != nil || rt.ID == exceptID {
			continue
		}
		rt.RevokedAt = &now
		n++
	}
	return n, nil
}

func (m *memTokenRepo) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, rt := range m.rows {
		if rt.ExpiresAt.Before(now) {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

func (m *memTokenRepo) activeCount(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, rt := range m.rows {
		if rt.UserID == userID && rt.RevokedAt == nil {
			n++
		}
	}
	return n
}

type memBlacklistRepo struct {
	mu   sync.Mutex
	rows map[string]time.Time
}

func newMemBlacklistRepo() *memBlacklistRepo {
	return &memBlacklistRepo{rows: make(map[string]time.Time)}
}

func (m *memBlacklistRepo) Add(_ context.Context, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[token]; !ok {
		m.rows[token] = expiresAt
	}
	return nil
}

func (m *memBlacklistRepo) Contains(_ context.Context, token string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.rows[token]
	return ok && now.Before(exp), nil
}

func (m *memBlacklistRepo) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for tk, exp := range m.rows {
		if exp.Before(now) {
			delete(m.rows, tk)
			n++
		}
	}
	return n, nil
}
