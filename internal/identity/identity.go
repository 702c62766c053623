// AngelaMos | 2026
// identity.go

package identity

import (
	"context"
)

type contextKey string

const identityKey contextKey = "identity"

// Attributes is the snapshot of a credential record an Identity is
// built from.
type Attributes struct {
	ID             int64
	Username       string
	Email          string
	FullName       string
	Role           Role
	DepartmentName string
}

// Identity is the authenticated caller for one request. It is built
// from a fresh store read and never changes afterwards; profile edits
// show up on the next request.
type Identity struct {
	attrs Attributes
}

func New(attrs Attributes) *Identity {
	return &Identity{attrs: attrs}
}

// Loader resolves a user id into an Identity. Unknown and deactivated
// ids yield (nil, nil); only storage failures are errors.
type Loader func(ctx context.Context, id int64) (*Identity, error)

func (i *Identity) ID() int64 {
	if i == nil {
		return 0
	}
	return i.attrs.ID
}

func (i *Identity) Username() string {
	if i == nil {
		return ""
	}
	return i.attrs.Username
}

func (i *Identity) Email() string {
	if i == nil {
		return ""
	}
	return i.attrs.Email
}

func (i *Identity) FullName() string {
	if i == nil {
		return ""
	}
	return i.attrs.FullName
}

func (i *Identity) DepartmentName() string {
	if i == nil {
		return ""
	}
	return i.attrs.DepartmentName
}

func (i *Identity) Role() Role {
	if i == nil {
		return RoleCitizen
	}
	return i.attrs.Role
}

func (i *Identity) IsFireDepartment() bool {
	return i != nil && i.attrs.Role.IsFireDepartment()
}

func (i *Identity) IsRegularUser() bool {
	return i != nil && i.attrs.Role.IsRegularUser()
}

func WithContext(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext returns the request identity, or nil when the request is
// anonymous.
func FromContext(ctx context.Context) *Identity {
	if id, ok := ctx.Value(identityKey).(*Identity); ok {
		return id
	}
	return nil
}

func IsAuthenticated(ctx context.Context) bool {
	return FromContext(ctx) != nil
}
