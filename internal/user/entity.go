// AngelaMos | 2026
// entity.go

package user

import (
	"errors"
	"time"

	"github.com/Favourez/loope/internal/core"
	"github.com/Favourez/loope/internal/identity"
)

// ErrInvalidCredentials is returned for both an unknown identifier and a
// wrong password so callers cannot tell the two apart.
var ErrInvalidCredentials = errors.New("invalid credentials")

// DuplicateIdentityError names the unique field a new or edited account
// collided on.
type DuplicateIdentityError struct {
	Field string
}

func (e *DuplicateIdentityError) Error() string {
	return e.Field + " already exists"
}

func (e *DuplicateIdentityError) Is(target error) bool {
	return target == core.ErrDuplicateKey
}

type User struct {
	ID                 int64         `db:"id"`
	Username           string        `db:"username"`
	Email              string        `db:"email"`
	PasswordHash       string        `db:"password_hash"`
	Role               identity.Role `db:"role"`
	FullName           string        `db:"full_name"`
	Phone              *string       `db:"phone"`
	DepartmentName     *string       `db:"department_name"`
	DepartmentLocation *string       `db:"department_location"`
	IsActive           bool          `db:"is_active"`
	CreatedAt          time.Time     `db:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at"`
}

func (u *User) IsFireDepartment() bool {
	return u.Role.IsFireDepartment()
}

func (u *User) Identity() *identity.Identity {
	attrs := identity.Attributes{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
	}
	if u.DepartmentName != nil {
		attrs.DepartmentName = *u.DepartmentName
	}
	return identity.New(attrs)
}

// normalizeDepartment clears the department fields on citizen accounts.
func (u *User) normalizeDepartment() {
	if !u.Role.IsFireDepartment() {
		u.DepartmentName = nil
		u.DepartmentLocation = nil
	}
}
