// AngelaMos | 2026
// entity.go

package message

import (
	"fmt"
	"time"

	"github.com/Favourez/loope/internal/core"
	"github.com/Favourez/loope/internal/identity"
)

type Type string

const (
	TypeGeneral   Type = "general"
	TypeInfo      Type = "info"
	TypeAlert     Type = "alert"
	TypeEmergency Type = "emergency"
)

// ParseType maps "" to general.
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case "":
		return TypeGeneral, nil
	case TypeGeneral, TypeInfo, TypeAlert, TypeEmergency:
		return t, nil
	default:
		return "", fmt.Errorf("unknown message type %q: %w", s, core.ErrInvalidInput)
	}
}

type Message struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Content   string    `db:"content"`
	Type      Type      `db:"message_type"`
	Likes     int64     `db:"likes"`
	IsDeleted bool      `db:"is_deleted"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	// Author columns come from a left join and are nil when the author
	// row is gone.
	AuthorUsername *string        `db:"author_username"`
	AuthorFullName *string        `db:"author_full_name"`
	AuthorRole     *identity.Role `db:"author_role"`
}
