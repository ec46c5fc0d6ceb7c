package apiclient

import (
	"encoding/json"
)

const (
	// WildcardPermission satisfies any permission check.
	WildcardPermission = "*"
	// AdminRole satisfies any role check.
	AdminRole = "admin"
)

// Identity is the cached profile of the current session.
type Identity struct {
	ID          int64  `json:"id,omitempty"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
}

// identityAlias tolerates the observed display-name field variants
// (real_name, realName, name) without leaking them into the canonical type.
type identityAlias Identity

type identityWire struct {
	identityAlias
	RealName      string `json:"real_name,omitempty"`
	RealNameCamel string `json:"realName,omitempty"`
	Name          string `json:"name,omitempty"`
}

// UnmarshalJSON decodes an identity, folding the display-name variants into
// DisplayName.
func (i *Identity) UnmarshalJSON(data []byte) error {
	wire := identityWire{}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*i = Identity(wire.identityAlias)
	if i.DisplayName == "" {
		switch {
		case wire.RealName != "":
			i.DisplayName = wire.RealName
		case wire.RealNameCamel != "":
			i.DisplayName = wire.RealNameCamel
		case wire.Name != "":
			i.DisplayName = wire.Name
		}
	}
	return nil
}

// Valid reports whether the identity carries enough to act as a cached
// profile. A login payload embedding less than this forces a separate
// profile fetch.
func (i *Identity) Valid() bool {
	return i != nil && (i.ID != 0 || i.Username != "")
}

// MenuNode is one entry of the navigable menu tree granted to the session.
// The tree is a read-only projection from the backend; children keep their
// payload order.
type MenuNode struct {
	Key      string     `json:"key"`
	Label    string     `json:"label"`
	Path     string     `json:"path,omitempty"`
	Children []MenuNode `json:"children,omitempty"`
}

// Walk visits the node and every descendant depth-first in order.
func (n MenuNode) Walk(visit func(node MenuNode)) {
	visit(n)
	for _, child := range n.Children {
		child.Walk(visit)
	}
}

// Department is the organizational unit attached to the identity.
type Department struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Code string `json:"code,omitempty"`
}

// PermissionSet answers permission checks over an opaque token list. The
// wildcard token grants everything.
type PermissionSet []string

func (p PermissionSet) Has(permission string) bool {
	for _, granted := range p {
		if granted == permission || granted == WildcardPermission {
			return true
		}
	}
	return false
}

func (p PermissionSet) HasAny(permissions ...string) bool {
	if p.Has(WildcardPermission) {
		return true
	}
	for _, permission := range permissions {
		if p.Has(permission) {
			return true
		}
	}
	return false
}

func (p PermissionSet) HasAll(permissions ...string) bool {
	if p.Has(WildcardPermission) {
		return true
	}
	for _, permission := range permissions {
		if !p.Has(permission) {
			return false
		}
	}
	return true
}

// RoleSet answers role checks; the administrator sentinel grants every
// role-gated access.
type RoleSet []string

func (r RoleSet) Has(role string) bool {
	for _, granted := range r {
		if granted == role || granted == AdminRole {
			return true
		}
	}
	return false
}

func (r RoleSet) HasAny(roles ...string) bool {
	if r.Has(AdminRole) {
		return true
	}
	for _, role := range roles {
		if r.Has(role) {
			return true
		}
	}
	return false
}
