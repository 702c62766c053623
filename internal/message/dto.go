// AngelaMos | 2026
// dto.go

package message

import (
	"time"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
	MaxContentLength = 2000
)

type CreateMessageRequest struct {
	Content     string `json:"content"      validate:"required,max=2000"`
	MessageType string `json:"message_type" validate:"omitempty,oneof=general info alert emergency"`
}

type AuthorResponse struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type MessageResponse struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	Content     string          `json:"content"`
	MessageType string          `json:"message_type"`
	Likes       int64           `json:"likes"`
	Author      *AuthorResponse `json:"author,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type MessageListResponse struct {
	Messages   []MessageResponse `json:"messages"`
	TotalCount int               `json:"total_count"`
}

type LikeResponse struct {
	ID    int64 `json:"id"`
	Likes int64 `json:"likes"`
}

func ToMessageResponse(m *Message) MessageResponse {
	resp := MessageResponse{
		ID:          m.ID,
		UserID:      m.UserID,
		Content:     m.Content,
		MessageType: string(m.Type),
		Likes:       m.Likes,
		CreatedAt:   m.CreatedAt,
	}

	if m.AuthorUsername != nil {
		author := &AuthorResponse{Username: *m.AuthorUsername}
		if m.AuthorFullName != nil {
			author.FullName = *m.AuthorFullName
		}
		if m.AuthorRole != nil {
			author.Role = m.AuthorRole.String()
		}
		resp.Author = author
	}

	return resp
}

func ToMessageListResponse(messages []Message) MessageListResponse {
	out := make([]MessageResponse, 0, len(messages))
	for i := range messages {
		out = append(out, ToMessageResponse(&messages[i]))
	}
	return MessageListResponse{Messages: out, TotalCount: len(out)}
}
