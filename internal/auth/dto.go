// AngelaMos | 2026
// dto.go

package auth

import (
	"time"
)

// LoginRequest accepts either a username or an email as identifier.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=255"`
	Password string `json:"password" validate:"required,max=128"`
}

type RegisterRequest struct {
	Username string  `json:"username"        validate:"required,min=3,max=50"`
	Email    string  `json:"email"           validate:"required,email,max=255"`
	Password string  `json:"password"        validate:"required,min=8,max=128"`
	FullName string  `json:"full_name"       validate:"required,min=1,max=100"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type SessionInfo struct {
	ID        int64     `json:"id"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SessionsResponse struct {
	Sessions []SessionInfo `json:"sessions"`
}

func toSessionInfoList(sessions []Session) []SessionInfo {
	out := make([]SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, SessionInfo{
			ID:        s.ID,
			UserAgent: s.UserAgent,
			IPAddress: s.IPAddress,
			CreatedAt: s.CreatedAt,
			ExpiresAt: s.ExpiresAt,
		})
	}
	return out
}
