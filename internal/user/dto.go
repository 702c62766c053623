// AngelaMos | 2026
// dto.go

package user

import (
	"time"
)

type CreateUserInput struct {
	Username           string
	Email              string
	Password           string
	Role               string
	FullName           string
	Phone              *string
	DepartmentName     *string
	DepartmentLocation *string
}

type UpdateProfileInput struct {
	Username           *string `json:"username,omitempty"            validate:"omitempty,min=3,max=50"`
	Email              *string `json:"email,omitempty"               validate:"omitempty,email,max=255"`
	FullName           *string `json:"full_name,omitempty"           validate:"omitempty,min=1,max=100"`
	Phone              *string `json:"phone,omitempty"               validate:"omitempty,max=32"`
	DepartmentName     *string `json:"department_name,omitempty"     validate:"omitempty,max=100"`
	DepartmentLocation *string `json:"department_location,omitempty" validate:"omitempty,max=255"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=8,max=128"`
}

type UserResponse struct {
	ID                 int64     `json:"id"`
	Username           string    `json:"username"`
	Email              string    `json:"email"`
	Role               string    `json:"role"`
	FullName           string    `json:"full_name"`
	Phone              *string   `json:"phone,omitempty"`
	DepartmentName     *string   `json:"department_name,omitempty"`
	DepartmentLocation *string   `json:"department_location,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// DepartmentResponse is the public view of a fire department; it leaves
// out contact details of the account holder.
type DepartmentResponse struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	DepartmentName     *string `json:"department_name,omitempty"`
	DepartmentLocation *string `json:"department_location,omitempty"`
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:                 u.ID,
		Username:           u.Username,
		Email:              u.Email,
		Role:               u.Role.String(),
		FullName:           u.FullName,
		Phone:              u.Phone,
		DepartmentName:     u.DepartmentName,
		DepartmentLocation: u.DepartmentLocation,
		CreatedAt:          u.CreatedAt,
	}
}

func ToDepartmentResponseList(users []User) []DepartmentResponse {
	out := make([]DepartmentResponse, 0, len(users))
	for _, u := range users {
		out = append(out, DepartmentResponse{
			ID:                 u.ID,
			Name:               u.FullName,
			DepartmentName:     u.DepartmentName,
			DepartmentLocation: u.DepartmentLocation,
		})
	}
	return out
}
