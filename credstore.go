package apiclient

import (
	"context"
	"encoding/json"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// Storage keys. Every identity field lives under its own key; ClearAll
// removes all of them together.
const (
	credKeyAccessToken  = "access_token"
	credKeyRefreshToken = "refresh_token"
	credKeyIdentity     = "user_info"
	credKeyPermissions  = "user_permissions"
	credKeyRoles        = "user_roles"
	credKeyMenus        = "user_menus"
	credKeyDepartment   = "user_department"
)

func encodeCredentialValue(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to encode credential field")
	}
	return data, nil
}

func decodeCredentialValue(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "unable to decode stored credential field")
	}
	return nil
}

// MemoryCredentials is an in-memory CredentialStore for tests and ephemeral
// runs. The zero value is not usable; call NewMemoryCredentials.
type MemoryCredentials struct {
	mu     sync.RWMutex
	values map[string][]byte
}

var _ CredentialStore = (*MemoryCredentials)(nil)

func NewMemoryCredentials() *MemoryCredentials {
	return &MemoryCredentials{values: map[string][]byte{}}
}

func (m *MemoryCredentials) get(key string, v any) error {
	m.mu.RLock()
	data, ok := m.values[key]
	m.mu.RUnlock()

	if !ok || len(data) == 0 {
		return nil
	}
	return decodeCredentialValue(data, v)
}

func (m *MemoryCredentials) set(key string, v any) error {
	data, err := encodeCredentialValue(v)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.values[key] = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryCredentials) AccessToken(ctx context.Context) (string, error) {
	token := ""
	err := m.get(credKeyAccessToken, &token)
	return token, err
}

func (m *MemoryCredentials) RefreshToken(ctx context.Context) (string, error) {
	token := ""
	err := m.get(credKeyRefreshToken, &token)
	return token, err
}

func (m *MemoryCredentials) SetTokens(ctx context.Context, access, refresh string) error {
	if err := m.set(credKeyAccessToken, access); err != nil {
		return err
	}
	if refresh == "" {
		return nil
	}
	return m.set(credKeyRefreshToken, refresh)
}

func (m *MemoryCredentials) SetAccessToken(ctx context.Context, access string) error {
	return m.set(credKeyAccessToken, access)
}

func (m *MemoryCredentials) Identity(ctx context.Context) (*Identity, error) {
	identity := &Identity{}
	if err := m.get(credKeyIdentity, identity); err != nil {
		return nil, err
	}
	if !identity.Valid() {
		return nil, nil
	}
	return identity, nil
}

func (m *MemoryCredentials) SetIdentity(ctx context.Context, identity *Identity) error {
	return m.set(credKeyIdentity, identity)
}

func (m *MemoryCredentials) Permissions(ctx context.Context) ([]string, error) {
	var permissions []string
	err := m.get(credKeyPermissions, &permissions)
	return permissions, err
}

func (m *MemoryCredentials) SetPermissions(ctx context.Context, permissions []string) error {
	return m.set(credKeyPermissions, permissions)
}

func (m *MemoryCredentials) Roles(ctx context.Context) ([]string, error) {
	var roles []string
	err := m.get(credKeyRoles, &roles)
	return roles, err
}

func (m *MemoryCredentials) SetRoles(ctx context.Context, roles []string) error {
	return m.set(credKeyRoles, roles)
}

func (m *MemoryCredentials) Menus(ctx context.Context) ([]MenuNode, error) {
	var menus []MenuNode
	err := m.get(credKeyMenus, &menus)
	return menus, err
}

func (m *MemoryCredentials) SetMenus(ctx context.Context, menus []MenuNode) error {
	return m.set(credKeyMenus, menus)
}

func (m *MemoryCredentials) Department(ctx context.Context) (*Department, error) {
	department := &Department{}
	if err := m.get(credKeyDepartment, department); err != nil {
		return nil, err
	}
	if department.ID == 0 && department.Name == "" {
		return nil, nil
	}
	return department, nil
}

func (m *MemoryCredentials) SetDepartment(ctx context.Context, department *Department) error {
	return m.set(credKeyDepartment, department)
}

func (m *MemoryCredentials) ClearAll(ctx context.Context) error {
	m.mu.Lock()
	m.values = map[string][]byte{}
	m.mu.Unlock()
	return nil
}
