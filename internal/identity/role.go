// AngelaMos | 2026
// role.go

package identity

import (
	"database/sql/driver"
	"fmt"

	"github.com/Favourez/loope/internal/core"
)

const (
	roleCitizen        = "citizen"
	roleFireDepartment = "fire_department"
	// rows written before the role rename still say "user"
	roleLegacyUser = "user"
)

// Role has exactly two values. The zero value is a citizen, so a Role
// can never hold anything outside the closed set.
type Role struct {
	fireDepartment bool
}

var (
	RoleCitizen        = Role{}
	RoleFireDepartment = Role{fireDepartment: true}
)

func ParseRole(s string) (Role, error) {
	switch s {
	case roleCitizen, roleLegacyUser:
		return RoleCitizen, nil
	case roleFireDepartment:
		return RoleFireDepartment, nil
	default:
		return Role{}, fmt.Errorf("parse role %q: %w", s, core.ErrInvalidInput)
	}
}

func (r Role) IsFireDepartment() bool {
	return r.fireDepartment
}

func (r Role) IsRegularUser() bool {
	return !r.fireDepartment
}

func (r Role) String() string {
	if r.fireDepartment {
		return roleFireDepartment
	}
	return roleCitizen
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func (r *Role) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return r.UnmarshalText([]byte(v))
	case []byte:
		return r.UnmarshalText(v)
	case nil:
		*r = RoleCitizen
		return nil
	default:
		return fmt.Errorf("scan role: unsupported type %T", src)
	}
}

func (r Role) Value() (driver.Value, error) {
	return r.String(), nil
}
